package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// nullish are answers models give instead of a JSON null.
var nullish = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "nil": {}, "n/a": {}, "无": {}, "空": {}, "未知": {}, "未找到": {}, "-": {},
}

// NormalizeAndSanitizeJSON
// - renames label keys (发票号码) to internal keys (invoice_number)
// - coerces numbers to strings and null-like strings to null
// - removes unknown keys and adds missing ones as null
func NormalizeAndSanitizeJSON(raw []byte, t fields.Table, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := decodeObject(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	out := make(map[string]any, t.Len())
	for k, v := range m {
		kind, ok := resolveKey(t, k)
		if !ok {
			changed = append(changed, k+"(unknown)")
			continue
		}
		if kind != k {
			changed = append(changed, k+"->"+kind)
		}
		s, ok := coerceValue(v)
		if !ok {
			if _, exists := out[kind]; !exists {
				out[kind] = nil
			}
			if v != nil {
				changed = append(changed, kind+"(null)")
			}
			continue
		}
		// a label alias must not clobber a value already given under the key
		if prev, exists := out[kind]; exists && prev != nil {
			continue
		}
		out[kind] = s
	}
	for _, k := range t.Kinds() {
		if _, ok := out[string(k)]; !ok {
			out[string(k)] = nil
			changed = append(changed, string(k)+"(missing)")
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.extract.normalize_sanitize", "changed", changed)
	}
	return b, changed, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("not a json object")
	}
	return m, nil
}

// resolveKey accepts either the internal key or the user label.
func resolveKey(t fields.Table, k string) (string, bool) {
	k = strings.TrimSpace(k)
	if t.Has(fields.Kind(k)) {
		return k, true
	}
	if s, ok := t.ByLabel(k); ok {
		return string(s.Kind), true
	}
	return "", false
}

// coerceValue returns the string form of v, or false when v means "not found".
func coerceValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = fmt.Sprintf("%.2f", t)
	default:
		return "", false
	}
	s = strings.TrimLeft(strings.Trim(strings.TrimSpace(s), "\"'“”*`"), "¥￥")
	if _, null := nullish[strings.ToLower(s)]; null {
		return "", false
	}
	return s, true
}

// resultFromJSON builds a Result from sanitized JSON; unknown keys are ignored.
func resultFromJSON(t fields.Table, clean []byte) (fields.Result, error) {
	res := fields.NewResult(t)
	var m map[string]*string
	if err := json.Unmarshal(clean, &m); err != nil {
		return res, fmt.Errorf("unmarshal fields: %w", err)
	}
	for k, v := range m {
		if v != nil {
			res.Set(fields.Kind(k), *v)
		}
	}
	return res, nil
}
