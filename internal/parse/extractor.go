package parse

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// number is a currency-like amount; it never matches a bare dot.
const number = `([0-9]+(?:\.[0-9]+)?)`

var (
	reTaxID         = regexp.MustCompile(`统一社会信用代码/纳税人识别号[：:]\s*([0-9A-Za-z]+)`)
	reNames         = regexp.MustCompile(`购\s*名\s*称[：:]\s*(.*?)\s+销\s*名\s*称[：:]\s*(.*?)(?:\s|$)`)
	reInvoiceNumber = regexp.MustCompile(`发票号码[：:]\s*([0-9A-Za-z]+)`)
	reIssueDate     = regexp.MustCompile(`开票日期[：:]\s*([0-9年月日\-]+)`)
	reSubtotal      = regexp.MustCompile(`[合总]\s*计\s*[¥￥]?` + number)
	// both amounts must follow 合计 directly and be separated, so "94.34" alone
	// never yields a tax of "4" and later digit runs (备注 account numbers) are ignored
	reSubtotalAndTax  = regexp.MustCompile(`[合总]\s*计\s*[¥￥]?` + number + `(?:\s+|\s*\*\s*|\s*[¥￥])\s*[¥￥]?` + number)
	reTotalWithTax    = regexp.MustCompile(`(?s)价税合计.*[（(]小写[）)]\s*[¥￥]\s*` + number)
	reTotalInWords    = regexp.MustCompile(`价税合计\s*[（(]大写[）)]\s*[ⓧ⊗]?\s*([^\s（(]+)`)
	rePreparer        = regexp.MustCompile(`开票人[:：]\s*(\S+)`)
)

// Extractor applies one dedicated pattern per field kind.
type Extractor struct {
	table  fields.Table
	logger *slog.Logger
}

func NewExtractor(table fields.Table, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{table: table, logger: logger}
}

// Extract runs the patterns for the requested kinds over normalized text.
// An empty request means every kind of the table. Unmatched kinds stay nil.
func (e *Extractor) Extract(normalized string, kinds []fields.Kind) fields.Result {
	res := fields.NewResult(e.table)
	if strings.TrimSpace(normalized) == "" {
		return res
	}
	if len(kinds) == 0 {
		kinds = e.table.Kinds()
	}

	want := make(map[fields.Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	// tax ids are positional: first occurrence is the buyer, second the seller
	if want[fields.BuyerTaxID] || want[fields.SellerTaxID] {
		ids := reTaxID.FindAllStringSubmatch(normalized, 2)
		if len(ids) > 0 && want[fields.BuyerTaxID] {
			res.Set(fields.BuyerTaxID, ids[0][1])
		}
		if len(ids) > 1 && want[fields.SellerTaxID] {
			res.Set(fields.SellerTaxID, ids[1][1])
		}
	}

	if want[fields.BuyerName] || want[fields.SellerName] {
		if m := reNames.FindStringSubmatch(normalized); m != nil {
			if want[fields.BuyerName] {
				res.Set(fields.BuyerName, m[1])
			}
			if want[fields.SellerName] {
				res.Set(fields.SellerName, m[2])
			}
		}
	}

	single := []struct {
		kind  fields.Kind
		re    *regexp.Regexp
		group int
	}{
		{fields.InvoiceNumber, reInvoiceNumber, 1},
		{fields.IssueDate, reIssueDate, 1},
		{fields.TotalAmount, reSubtotal, 1},
		{fields.TotalTax, reSubtotalAndTax, 2},
		{fields.TotalIncludingTax, reTotalWithTax, 1},
		{fields.TotalIncludingTaxInWords, reTotalInWords, 1},
		{fields.Preparer, rePreparer, 1},
	}
	for _, p := range single {
		if !want[p.kind] {
			continue
		}
		if m := p.re.FindStringSubmatch(normalized); m != nil {
			res.Set(p.kind, m[p.group])
		}
	}

	e.logger.Debug("parse.regex.done", "requested", len(kinds), "found", res.Found())
	return res
}
