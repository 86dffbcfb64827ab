// Package format turns an extraction result into the ordered values a
// filename is built from.
package format

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// Value is one selected field. Value is nil when the field was not found
// or the label is unknown.
type Value struct {
	Label string
	Value *string
}

// Formatter resolves user labels against a field table.
type Formatter struct {
	table  fields.Table
	logger *slog.Logger
}

func NewFormatter(table fields.Table, logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{table: table, logger: logger}
}

// FormatByFields returns one Value per label, in the caller's order. Duplicate
// labels are kept.
func (f *Formatter) FormatByFields(res fields.Result, labels []string) []Value {
	out := make([]Value, 0, len(labels))
	for _, label := range labels {
		spec, ok := f.table.ByLabel(label)
		if !ok {
			f.logger.Warn("format.unknown_label", "label", label)
			out = append(out, Value{Label: label})
			continue
		}
		out = append(out, Value{Label: label, Value: res.Get(spec.Kind)})
	}
	return out
}

// Join concatenates values with sep; nil renders as "".
func Join(values []Value, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v.Value != nil {
			parts[i] = *v.Value
		}
	}
	return strings.Join(parts, sep)
}

// Strings returns the values as plain strings, nil as "".
func Strings(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v.Value != nil {
			out[i] = *v.Value
		}
	}
	return out
}
