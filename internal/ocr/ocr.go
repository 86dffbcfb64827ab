package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/pdf"
	"github.com/joseph-ayodele/invoice-renamer/internal/runner"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "chi_sim"
	TessdataDir   string
	DPI           int // rasterization DPI for PDFs, default 300
	MaxPages      int // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	EnableTSVConfidence bool
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// PageRenderer turns a PDF into one PNG per page inside dir.
type PageRenderer interface {
	RenderPNG(ctx context.Context, path, dir string) ([]string, error)
}

type Extractor struct {
	cfg      Config
	runner   runner.Runner
	renderer PageRenderer
	logger   *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "chi_sim"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	raster := pdf.NewRasterizer(cfg.DPI)
	raster.MaxPages = cfg.MaxPages
	return &Extractor{cfg: cfg, runner: runner.Exec{Logger: logger}, renderer: raster, logger: logger}
}

// WithRunner replaces the command runner (tests stub tesseract/pdftoppm with it).
func (e *Extractor) WithRunner(r runner.Runner) *Extractor {
	e.runner = r
	return e
}

// WithRenderer replaces the in-process PDF renderer; nil forces the pdftoppm path.
func (e *Extractor) WithRenderer(r PageRenderer) *Extractor {
	e.renderer = r
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := filepath.Ext(path)
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	if _, err := os.Stat(path); err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	default:
		e.logger.Warn("ocr.extract.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupported, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "path", path, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len([]rune(res.Text)),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractText never fails: errors come back as a descriptive line of text
// so the caller can log it and move to the next cascade stage.
func (e *Extractor) ExtractText(ctx context.Context, path string) string {
	res, err := e.Extract(ctx, path)
	if err == nil {
		return res.Text
	}
	ext := filepath.Ext(path)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return "文件未找到: " + path
	case errors.Is(err, common.ErrUnsupported):
		return "不支持的文件类型: " + ext
	case constants.MapExtToFormat(ext) == constants.PDF:
		return fmt.Sprintf("处理PDF文件时出错: %v", err)
	default:
		return fmt.Sprintf("打开图片文件时出错: %v", err)
	}
}
