package parse

import (
	"regexp"
	"strings"
)

// LineItem is one row of the goods/services table of a VAT invoice.
type LineItem struct {
	Name      string `json:"项目名称"`
	Spec      string `json:"规格型号"`
	Unit      string `json:"单位"`
	Quantity  string `json:"数量"`
	UnitPrice string `json:"单价"`
	Amount    string `json:"金额"`
	TaxRate   string `json:"税率"`
	TaxAmount string `json:"税额"`
}

var (
	reItemsHeader = regexp.MustCompile(`项目名称\s*规格型号\s*单\s*位\s*数\s*量\s*单\s*价\s*金\s*额\s*税率/征收率\s*税\s*额`)
	reItemsEnd    = regexp.MustCompile(`合\s*计|价税合计`)
	reItemRow     = regexp.MustCompile(
		`(\*?.*?\*?)\s+` + // name, may be wrapped in *category*
			`(\S*?)\s+` + // spec, may be empty
			`(\S+)\s+` + // unit
			`([0-9.]+)\s+` + // quantity
			`([0-9.]+)\s+` + // unit price
			`([0-9.]+)\s+` + // amount
			`([0-9*%]+)\s+` + // tax rate, "*" when exempt
			`([0-9*.]+)`, // tax amount
	)
)

// ExtractLineItems returns the rows between the table header and the 合计 line.
// No header means no items.
func ExtractLineItems(text string) []LineItem {
	text = Normalize(text)
	loc := reItemsHeader.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	section := text[loc[1]:]
	if end := reItemsEnd.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}

	var items []LineItem
	for _, m := range reItemRow.FindAllStringSubmatch(section, -1) {
		items = append(items, LineItem{
			Name:      strings.TrimSpace(m[1]),
			Spec:      strings.TrimSpace(m[2]),
			Unit:      strings.TrimSpace(m[3]),
			Quantity:  strings.TrimSpace(m[4]),
			UnitPrice: strings.TrimSpace(m[5]),
			Amount:    strings.TrimSpace(m[6]),
			TaxRate:   strings.TrimSpace(m[7]),
			TaxAmount: strings.TrimSpace(m[8]),
		})
	}
	return items
}
