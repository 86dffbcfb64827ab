// Package llm extracts invoice fields with a generative model, constrained to
// the field table and guarded by a rate-limit aware retry policy.
package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// ChatRequest is one chat/completions call. On the vision path User carries the
// instruction and ImageDataURL the page; Schema is only honoured on the text path.
type ChatRequest struct {
	Model        string
	System       []string
	User         string
	ImageDataURL string
	JSONObject   bool
	Schema       map[string]any
}

// ChatClient is the remote model collaborator. Rate-limit failures must be
// distinguishable through Classify.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// FieldExtractor is the interface the cascade depends on. Both entry points
// always return a result carrying every field kind, all-nil on failure.
type FieldExtractor interface {
	ExtractFromText(ctx context.Context, text string) fields.Result
	ExtractFromImage(ctx context.Context, image []byte, mimeType string) fields.Result
}
