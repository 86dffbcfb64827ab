package llm

import "github.com/joseph-ayodele/invoice-renamer/internal/fields"

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Every kind is required and nullable, so a model that cannot find a value must say null.
func BuildInvoiceJSONSchema(t fields.Table) map[string]any {
	props := make(map[string]any, t.Len())
	required := make([]string, 0, t.Len())
	for _, s := range t.Specs() {
		props[string(s.Kind)] = map[string]any{
			"type":        []string{"string", "null"},
			"description": s.Label + "：" + s.Description,
		}
		required = append(required, string(s.Kind))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
