// Package pdf decodes the embedded text layer of invoice PDFs and renders
// pages to images for OCR and vision extraction.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/runner"
)

// ErrNoTextLayer means the PDF decoded fine but carries no visible text (a scan).
var ErrNoTextLayer = errors.New("pdf has no text layer")

// TextLayer reads the text layer with pdftotext and falls back to an in-process
// pdfcpu content-stream decoder when the binary is missing or fails.
type TextLayer struct {
	pdftotext string
	runner    runner.Runner
	decode    func(path string) (string, error)
	logger    *slog.Logger
}

func NewTextLayer(pdftotext string, r runner.Runner, logger *slog.Logger) *TextLayer {
	if logger == nil {
		logger = slog.Default()
	}
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	if r == nil {
		r = runner.Exec{Logger: logger}
	}
	return &TextLayer{pdftotext: pdftotext, runner: r, decode: decodeWithPdfcpu, logger: logger}
}

// Text returns the decoded text, pages separated by a form feed.
func (t *TextLayer) Text(ctx context.Context, path string) (string, error) {
	start := time.Now()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := t.runner.Run(ctx, t.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err == nil && hasText(string(out)) {
		t.logger.Debug("pdf.text.ok", "path", path, "method", "pdftotext",
			"pages", 1+strings.Count(string(out), "\f"), "elapsed_ms", time.Since(start).Milliseconds())
		return string(out), nil
	}
	if err != nil {
		t.logger.Warn("pdf.text.pdftotext_failed", "path", path, "error", err,
			"stderr", runner.Truncate(string(errb), 512))
	}

	txt, derr := t.decode(path)
	if derr != nil {
		if err != nil {
			return "", fmt.Errorf("decode text layer: %w", errors.Join(err, derr))
		}
		return "", fmt.Errorf("decode text layer: %w", derr)
	}
	if !hasText(txt) {
		return "", ErrNoTextLayer
	}
	t.logger.Debug("pdf.text.ok", "path", path, "method", "pdfcpu", "elapsed_ms", time.Since(start).Milliseconds())
	return txt, nil
}

func hasText(s string) bool {
	return strings.TrimSpace(strings.ReplaceAll(s, "\f", "")) != ""
}
