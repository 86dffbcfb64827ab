package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

// DefaultMaxInputRunes bounds the invoice text sent to the model.
const DefaultMaxInputRunes = 8000

// Report describes how one extraction went.
type Report struct {
	Attempts int
	Slept    time.Duration
	Jitter   time.Duration
	Outcome  Outcome
	Method   string // vision coercion method, empty on the text path
	Err      error
}

// StructuredExtractor implements FieldExtractor on top of a ChatClient.
type StructuredExtractor struct {
	client      ChatClient
	table       fields.Table
	model       string
	visionModel string
	maxRunes    int

	backoff Backoff
	sleep   Sleeper
	jitter  func() time.Duration
	limiter *rate.Limiter

	schemaMap map[string]any
	schema    *jsonschema.Schema
	logger    *slog.Logger
}

// ExtractorOption configures a StructuredExtractor.
type ExtractorOption func(*StructuredExtractor)

// WithVisionModel sets the model used by ExtractFromImage.
func WithVisionModel(model string) ExtractorOption {
	return func(e *StructuredExtractor) {
		if model != "" {
			e.visionModel = model
		}
	}
}

// WithBackoff replaces the rate-limit wait schedule.
func WithBackoff(b Backoff) ExtractorOption {
	return func(e *StructuredExtractor) { e.backoff = b }
}

// WithSleeper replaces the blocking wait, mostly for tests.
func WithSleeper(s Sleeper) ExtractorOption {
	return func(e *StructuredExtractor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// WithJitter replaces the post-success courtesy delay source.
func WithJitter(j func() time.Duration) ExtractorOption {
	return func(e *StructuredExtractor) { e.jitter = j }
}

// WithLimiter throttles calls client-side before they reach the provider.
func WithLimiter(l *rate.Limiter) ExtractorOption {
	return func(e *StructuredExtractor) { e.limiter = l }
}

// WithMaxInputRunes caps the text placed in the user message.
func WithMaxInputRunes(n int) ExtractorOption {
	return func(e *StructuredExtractor) {
		if n > 0 {
			e.maxRunes = n
		}
	}
}

// NewRPMLimiter returns a limiter allowing rpm calls per minute, or nil when rpm <= 0.
func NewRPMLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// NewStructuredExtractor compiles the table's schema and wires the retry policy.
func NewStructuredExtractor(client ChatClient, table fields.Table, model string, logger *slog.Logger, opts ...ExtractorOption) (*StructuredExtractor, error) {
	if client == nil {
		return nil, common.NewAppError(common.CodeConfig, "llm client is required", common.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	schemaMap := BuildInvoiceJSONSchema(table)
	schema, err := CompileSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("invoice schema: %w", err)
	}
	e := &StructuredExtractor{
		client:      client,
		table:       table,
		model:       model,
		visionModel: model,
		maxRunes:    DefaultMaxInputRunes,
		backoff:     DefaultBackoff(),
		sleep:       SleepContext,
		jitter:      DefaultJitter,
		schemaMap:   schemaMap,
		schema:      schema,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExtractFromText asks the model for every field of the table, schema constrained.
func (e *StructuredExtractor) ExtractFromText(ctx context.Context, text string) fields.Result {
	res, _ := e.ExtractFromTextReport(ctx, text)
	return res
}

// ExtractFromImage asks the vision model about one page image.
func (e *StructuredExtractor) ExtractFromImage(ctx context.Context, image []byte, mimeType string) fields.Result {
	res, _ := e.ExtractFromImageReport(ctx, image, mimeType)
	return res
}

// ExtractFromTextReport is ExtractFromText plus the attempt report.
func (e *StructuredExtractor) ExtractFromTextReport(ctx context.Context, text string) (fields.Result, Report) {
	req := ChatRequest{
		Model:      e.model,
		System:     []string{BuildSystemPrompt(e.table)},
		User:       BuildUserPrompt(text, e.maxRunes),
		JSONObject: true,
		Schema:     e.schemaMap,
	}
	return e.run(ctx, "text", req, e.parseText)
}

// ExtractFromImageReport is ExtractFromImage plus the attempt report.
func (e *StructuredExtractor) ExtractFromImageReport(ctx context.Context, image []byte, mimeType string) (fields.Result, Report) {
	if len(image) == 0 {
		return fields.NewResult(e.table), Report{Outcome: Fatal, Err: common.ErrInvalidInput}
	}
	req := ChatRequest{
		Model:        e.visionModel,
		User:         BuildVisionPrompt(e.table),
		ImageDataURL: DataURL(image, mimeType),
	}
	var method string
	res, rep := e.run(ctx, "vision", req, func(content string) (fields.Result, error) {
		r, m := CoerceVisionResponse(content, e.table)
		method = m
		if m == CoercedNone {
			e.logger.Warn("llm.vision.coerce_empty", "content_len", len(content))
		}
		return r, nil
	})
	rep.Method = method
	return res, rep
}

// parseText normalizes the answer, checks it against the schema and builds a Result.
func (e *StructuredExtractor) parseText(content string) (fields.Result, error) {
	raw := []byte(content)
	if m := reFence.FindStringSubmatch(content); m != nil {
		raw = []byte(m[1])
	}
	clean, _, err := NormalizeAndSanitizeJSON(raw, e.table, e.logger)
	if err != nil {
		return fields.Result{}, err
	}
	if err := ValidateJSON(e.schema, clean); err != nil {
		return fields.Result{}, err
	}
	return resultFromJSON(e.table, clean)
}

// run drives one logical extraction through the retry policy. Every exit that
// is not a success yields an all-nil result.
func (e *StructuredExtractor) run(ctx context.Context, path string, req ChatRequest, parse func(string) (fields.Result, error)) (fields.Result, Report) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
		ctx = common.WithRequestID(ctx, reqID)
	}
	start := time.Now()
	var rep Report
	empty := fields.NewResult(e.table)

	e.logger.Info("llm.extract.start",
		"req_id", reqID,
		"path", path,
		"model", req.Model,
		"input_len", len(req.User),
	)

	fail := func(event string, err error) (fields.Result, Report) {
		rep.Outcome = Fatal
		rep.Err = err
		e.logger.Error(event,
			"req_id", reqID,
			"path", path,
			"attempts", rep.Attempts,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return empty, rep
	}

	for attempt := 0; ; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return fail("llm.extract.fatal", err)
			}
		}

		content, err := e.client.Complete(ctx, req)
		rep.Attempts++

		switch Classify(err) {
		case Success:
			res, perr := parse(content)
			if perr != nil {
				return fail("llm.extract.parse_failed", perr)
			}
			if e.jitter != nil {
				if j := e.jitter(); j > 0 {
					_ = e.sleep(ctx, j)
					rep.Jitter = j
				}
			}
			rep.Outcome = Success
			e.logger.Info("llm.extract.ok",
				"req_id", reqID,
				"path", path,
				"attempts", rep.Attempts,
				"found", res.Found(),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, rep

		case Retryable:
			if attempt >= e.backoff.MaxRetries {
				rep.Outcome = Retryable
				rep.Err = err
				e.logger.Error("llm.extract.exhausted",
					"req_id", reqID,
					"path", path,
					"attempts", rep.Attempts,
					"slept_ms", rep.Slept.Milliseconds(),
					"error", err,
				)
				return empty, rep
			}
			d := e.backoff.Attempt(attempt)
			e.logger.Warn("llm.extract.rate_limited",
				"req_id", reqID,
				"path", path,
				"attempt", rep.Attempts,
				"wait_s", d.Seconds(),
			)
			if serr := e.sleep(ctx, d); serr != nil {
				return fail("llm.extract.fatal", serr)
			}
			rep.Slept += d

		default:
			return fail("llm.extract.fatal", err)
		}
	}
}
