package llm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// Coercion methods reported by CoerceVisionResponse.
const (
	CoercedJSON  = "json"
	CoercedLines = "lines"
	CoercedNone  = "none"
)

var reFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// CoerceVisionResponse turns a free-form vision answer into a Result.
// It first looks for a JSON object (fenced or bare) keyed by label or internal
// key, then falls back to "label：value" lines. Nothing found means all-nil.
func CoerceVisionResponse(content string, t fields.Table) (fields.Result, string) {
	if res, ok := coerceJSON(content, t); ok {
		return res, CoercedJSON
	}
	if res, ok := coerceLines(content, t); ok {
		return res, CoercedLines
	}
	return fields.NewResult(t), CoercedNone
}

func coerceJSON(content string, t fields.Table) (fields.Result, bool) {
	var candidates []string
	for _, m := range reFence.FindAllStringSubmatch(content, -1) {
		candidates = append(candidates, m[1])
	}
	if i, j := strings.Index(content, "{"), strings.LastIndex(content, "}"); i >= 0 && j > i {
		candidates = append(candidates, content[i:j+1])
	}

	for _, c := range candidates {
		m, err := decodeObject([]byte(strings.TrimSpace(c)))
		if err != nil {
			continue
		}
		res := fields.NewResult(t)
		matched := false
		for k, v := range m {
			key, ok := resolveKey(t, k)
			if !ok {
				continue
			}
			matched = true
			if s, ok := coerceValue(v); ok {
				res.Set(fields.Kind(key), s)
			}
		}
		if matched {
			return res, true
		}
	}
	return fields.Result{}, false
}

func coerceLines(content string, t fields.Table) (fields.Result, bool) {
	specs := t.Specs()
	// longest label first so 价税合计大写 wins over 价税合计
	sort.SliceStable(specs, func(i, j int) bool { return len(specs[i].Label) > len(specs[j].Label) })

	patterns := make([]*regexp.Regexp, len(specs))
	for i, s := range specs {
		patterns[i] = regexp.MustCompile(`^[\s\-*•#>\d.、]*\**\s*` + regexp.QuoteMeta(s.Label) + `\s*\**\s*[:：]\s*\**\s*(.+)$`)
	}

	res := fields.NewResult(t)
	matched := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		for i, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			kind := specs[i].Kind
			if res.Get(kind) == nil {
				if s, ok := coerceValue(strings.TrimRight(m[1], "。；;，,")); ok {
					res.Set(kind, s)
					matched = true
				}
			}
			break
		}
	}
	return res, matched
}
