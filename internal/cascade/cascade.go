// Package cascade runs the per-document extraction state machine: text layer,
// regex, OCR plus model, vision, and a single second-chance model pass.
package cascade

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/format"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
	"github.com/joseph-ayodele/invoice-renamer/internal/ocr"
	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
)

var errNoImager = errors.New("no pdf page renderer configured")

// TextLayer decodes the embedded text of a PDF.
type TextLayer interface {
	Text(ctx context.Context, path string) (string, error)
}

// OCR produces text from a scanned PDF or an image.
type OCR interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// PageImager renders one PDF page for the vision model.
type PageImager interface {
	RenderJPEG(ctx context.Context, path string, page int) ([]byte, error)
}

// Deps are the collaborators of a Cascade. AI, Imager and OCR may be nil;
// the matching stages are then skipped.
type Deps struct {
	TextLayer TextLayer
	OCR       OCR
	AI        llm.FieldExtractor
	Imager    PageImager
}

// Config selects what the filename is built from.
type Config struct {
	Labels       []string
	Separator    string
	EnableVision bool
	MaxVisionMB  int
}

// Outcome is the result of one document run.
type Outcome struct {
	Result       fields.Result
	Values       []format.Value
	Joined       string
	State        State // stage that produced Result
	Trail        []State
	SecondChance bool
	DirectText   string
	OCRText      string
	Elapsed      time.Duration
}

// Text returns the best text seen for the document.
func (o Outcome) Text() string {
	if strings.TrimSpace(o.DirectText) != "" {
		return o.DirectText
	}
	return o.OCRText
}

type Cascade struct {
	table     fields.Table
	cfg       Config
	kinds     []fields.Kind
	deps      Deps
	regex     *parse.Extractor
	formatter *format.Formatter
	logger    *slog.Logger
}

func New(table fields.Table, cfg Config, deps Deps, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = fields.DefaultSelection
	}
	return &Cascade{
		table:     table,
		cfg:       cfg,
		kinds:     table.KindsForLabels(cfg.Labels),
		deps:      deps,
		regex:     parse.NewExtractor(table, logger),
		formatter: format.NewFormatter(table, logger),
		logger:    logger,
	}
}

// doc is the mutable state of one run.
type doc struct {
	path        string
	out         Outcome
	secondTried bool
}

// Run drives one document to StateDone. It never fails: every stage that
// cannot produce fields hands over to the next one, and the worst case is an
// all-nil result.
func (c *Cascade) Run(ctx context.Context, path string) Outcome {
	start := time.Now()
	d := &doc{path: path}
	d.out.Result = fields.NewResult(c.table)
	d.out.State = StateDone

	state := StateOcrThenAi
	if constants.MapExtToFormat(filepath.Ext(path)) == constants.PDF {
		state = StateDirectText
	}

	for state != StateDone {
		d.out.Trail = append(d.out.Trail, state)
		c.logger.Debug("cascade.state", "path", path, "state", state.String())
		switch state {
		case StateDirectText:
			state = c.directText(ctx, d)
		case StateRegexOnDirectText:
			state = c.regexOnDirectText(d)
		case StateOcrThenAi:
			state = c.ocrThenAi(ctx, d)
		case StateVisionAi:
			state = c.visionAi(ctx, d)
		case StateSecondChanceAi:
			state = c.secondChanceAi(ctx, d)
		default:
			state = StateDone
		}
	}
	d.out.Trail = append(d.out.Trail, StateDone)

	c.format(d)
	d.out.Elapsed = time.Since(start)
	c.logger.Info("cascade.done",
		"path", path,
		"state", d.out.State.String(),
		"joined", d.out.Joined,
		"second_chance", d.out.SecondChance,
		"elapsed_ms", d.out.Elapsed.Milliseconds(),
	)
	return d.out
}

func (c *Cascade) directText(ctx context.Context, d *doc) State {
	if c.deps.TextLayer == nil {
		return StateOcrThenAi
	}
	text, err := c.deps.TextLayer.Text(ctx, d.path)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Info("cascade.direct_text.none", "path", d.path, "error", err)
		return StateOcrThenAi
	}
	d.out.DirectText = text
	return StateRegexOnDirectText
}

func (c *Cascade) regexOnDirectText(d *doc) State {
	res := c.regexExtract(d.out.DirectText)
	if !res.Usable() {
		c.logger.Info("cascade.regex.unusable", "path", d.path)
		return StateOcrThenAi
	}
	c.accept(d, res, StateRegexOnDirectText)
	return c.guard(d)
}

func (c *Cascade) ocrThenAi(ctx context.Context, d *doc) State {
	if c.deps.OCR != nil {
		res, err := c.deps.OCR.Extract(ctx, d.path)
		if err != nil {
			c.logger.Warn("cascade.ocr.failed", "path", d.path, "error", err)
		} else {
			d.out.OCRText = res.Text
		}
	}

	if strings.TrimSpace(d.out.OCRText) == "" {
		if c.visionReady() {
			return StateVisionAi
		}
		c.accept(d, fields.NewResult(c.table), StateOcrThenAi)
		return c.guard(d)
	}

	var res fields.Result
	if c.deps.AI != nil {
		res = c.deps.AI.ExtractFromText(ctx, d.out.OCRText)
	} else {
		res = c.regexExtract(d.out.OCRText)
	}
	c.accept(d, res, StateOcrThenAi)
	if !res.Usable() && c.visionReady() {
		return StateVisionAi
	}
	return c.guard(d)
}

// regexExtract runs the patterns for the selected kinds only. With no known
// label selected nothing is requested, so the result stays all-nil.
func (c *Cascade) regexExtract(text string) fields.Result {
	if len(c.kinds) == 0 {
		return fields.NewResult(c.table)
	}
	return c.regex.Extract(parse.Normalize(text), c.kinds)
}

func (c *Cascade) visionAi(ctx context.Context, d *doc) State {
	img, mime, err := c.visionImage(ctx, d.path)
	if err != nil {
		c.logger.Warn("cascade.vision.image_failed", "path", d.path, "error", err)
		return c.guard(d)
	}
	res := c.deps.AI.ExtractFromImage(ctx, img, mime)
	if res.Usable() || !d.out.Result.Usable() {
		c.accept(d, res, StateVisionAi)
	}
	return c.guard(d)
}

func (c *Cascade) secondChanceAi(ctx context.Context, d *doc) State {
	d.secondTried = true
	d.out.SecondChance = true

	res := c.deps.AI.ExtractFromText(ctx, d.out.Text())
	if res.Usable() && c.selectedFound(res) >= c.selectedFound(d.out.Result) {
		c.accept(d, res, StateSecondChanceAi)
	} else {
		c.logger.Info("cascade.second_chance.kept_previous", "path", d.path)
	}
	return StateDone
}

// guard decides between the second-chance pass and done. The flag makes the
// pass single-use.
func (c *Cascade) guard(d *doc) State {
	if d.secondTried || c.deps.AI == nil || strings.TrimSpace(d.out.Text()) == "" {
		return StateDone
	}
	c.format(d)
	if NeedsSecondChance(d.out.Joined, c.cfg.Separator) {
		c.logger.Info("cascade.guard.triggered", "path", d.path, "joined", d.out.Joined)
		return StateSecondChanceAi
	}
	return StateDone
}

func (c *Cascade) accept(d *doc, res fields.Result, from State) {
	d.out.Result = res
	d.out.State = from
}

func (c *Cascade) format(d *doc) {
	d.out.Values = c.formatter.FormatByFields(d.out.Result, c.cfg.Labels)
	d.out.Joined = format.Join(d.out.Values, c.cfg.Separator)
}

func (c *Cascade) selectedFound(res fields.Result) int {
	n := 0
	for _, k := range c.kinds {
		if res.Get(k) != nil {
			n++
		}
	}
	return n
}

func (c *Cascade) visionReady() bool {
	return c.cfg.EnableVision && c.deps.AI != nil
}

func (c *Cascade) visionImage(ctx context.Context, path string) ([]byte, string, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) == constants.PDF {
		if c.deps.Imager == nil {
			return nil, "", errNoImager
		}
		b, err := c.deps.Imager.RenderJPEG(ctx, path, 0)
		return b, "image/jpeg", err
	}
	return llm.ReadImage(path, c.cfg.MaxVisionMB)
}
