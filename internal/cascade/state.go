package cascade

import "strings"

// State is one step of the extraction state machine.
type State int

const (
	StateDirectText State = iota
	StateRegexOnDirectText
	StateOcrThenAi
	StateVisionAi
	StateSecondChanceAi
	StateDone
)

func (s State) String() string {
	switch s {
	case StateDirectText:
		return "direct_text"
	case StateRegexOnDirectText:
		return "regex_on_direct_text"
	case StateOcrThenAi:
		return "ocr_then_ai"
	case StateVisionAi:
		return "vision_ai"
	case StateSecondChanceAi:
		return "second_chance_ai"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// NeedsSecondChance reports whether a joined name has a gap left by a missing
// field: two adjacent separators, or a separator at either end. An empty name
// always qualifies.
func NeedsSecondChance(joined, sep string) bool {
	if joined == "" {
		return true
	}
	if sep == "" {
		return false
	}
	return strings.Contains(joined, sep+sep) ||
		strings.HasPrefix(joined, sep) ||
		strings.HasSuffix(joined, sep)
}
