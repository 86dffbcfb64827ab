// Package fields defines the closed set of invoice field kinds and the
// extraction result every strategy produces.
package fields

import "strings"

// Kind is the canonical internal key of an invoice field.
type Kind string

const (
	InvoiceNumber            Kind = "invoice_number"
	IssueDate                Kind = "issue_date"
	BuyerName                Kind = "buyer_name"
	BuyerTaxID               Kind = "buyer_tax_id"
	SellerName               Kind = "seller_name"
	SellerTaxID              Kind = "seller_tax_id"
	TotalAmount              Kind = "total_amount"
	TotalTax                 Kind = "total_tax"
	TotalIncludingTax        Kind = "total_including_tax"
	TotalIncludingTaxInWords Kind = "total_including_tax_in_words"
	Preparer                 Kind = "preparer"
)

// Spec describes one field kind: its key, the label users pick it by and
// the description handed to the model.
type Spec struct {
	Kind        Kind
	Label       string
	Description string
}

// Table is an immutable, ordered set of field specs. The zero value is empty.
type Table struct {
	specs   []Spec
	byLabel map[string]int
	byKind  map[Kind]int
}

// NewTable builds a table; later duplicates of a kind or label are ignored.
func NewTable(specs ...Spec) Table {
	t := Table{
		byLabel: make(map[string]int, len(specs)),
		byKind:  make(map[Kind]int, len(specs)),
	}
	for _, s := range specs {
		if _, dup := t.byKind[s.Kind]; dup {
			continue
		}
		if _, dup := t.byLabel[s.Label]; dup {
			continue
		}
		t.byKind[s.Kind] = len(t.specs)
		t.byLabel[s.Label] = len(t.specs)
		t.specs = append(t.specs, s)
	}
	return t
}

var defaultSpecs = []Spec{
	{InvoiceNumber, "发票号码", "发票上的唯一号码（如：2511702321248076035）"},
	{IssueDate, "开票日期", "发票开票日期（如：2025年02月27日）"},
	{BuyerName, "购方名称", "购买方名称（发票上第一个“名称”）"},
	{BuyerTaxID, "购方税号", "购买方统一社会信用代码/纳税人识别号（发票上第一个税号）"},
	{SellerName, "销方名称", "销售方名称（发票上第二个“名称”）"},
	{SellerTaxID, "销方税号", "销售方统一社会信用代码/纳税人识别号（发票上第二个税号）"},
	{TotalAmount, "合计", "合计金额，不含税（如：94.34）"},
	{TotalTax, "总税额", "合计税额（如：5.66）"},
	{TotalIncludingTax, "价税合计", "价税合计小写金额，只保留数字（如：100.00）"},
	{TotalIncludingTaxInWords, "价税合计大写", "价税合计大写金额（如：壹佰元整）"},
	{Preparer, "开票人", "开票人姓名（如：王丽丽）"},
}

// DefaultTable returns the Chinese VAT invoice field table.
func DefaultTable() Table {
	return NewTable(defaultSpecs...)
}

// DefaultSelection is the label order used when none is configured.
var DefaultSelection = []string{"销方名称", "开票日期", "合计"}

// DefaultSeparator joins field values into a filename.
const DefaultSeparator = "_"

// Specs returns a copy of the table entries in order.
func (t Table) Specs() []Spec {
	out := make([]Spec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Kinds returns the table's kinds in order.
func (t Table) Kinds() []Kind {
	out := make([]Kind, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.Kind
	}
	return out
}

// Len is the number of field kinds.
func (t Table) Len() int { return len(t.specs) }

// ByLabel resolves a user-facing label (surrounding spaces ignored).
func (t Table) ByLabel(label string) (Spec, bool) {
	i, ok := t.byLabel[strings.TrimSpace(label)]
	if !ok {
		return Spec{}, false
	}
	return t.specs[i], true
}

// ByKind resolves an internal key.
func (t Table) ByKind(k Kind) (Spec, bool) {
	i, ok := t.byKind[k]
	if !ok {
		return Spec{}, false
	}
	return t.specs[i], true
}

// Has reports whether k belongs to the table.
func (t Table) Has(k Kind) bool {
	_, ok := t.byKind[k]
	return ok
}

// KindsForLabels maps labels to kinds, skipping unknown labels.
func (t Table) KindsForLabels(labels []string) []Kind {
	out := make([]Kind, 0, len(labels))
	for _, l := range labels {
		if s, ok := t.ByLabel(l); ok {
			out = append(out, s.Kind)
		}
	}
	return out
}
