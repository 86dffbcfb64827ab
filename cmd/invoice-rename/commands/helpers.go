package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/cascade"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-renamer/internal/ocr"
	"github.com/joseph-ayodele/invoice-renamer/internal/pdf"
	"github.com/joseph-ayodele/invoice-renamer/internal/runner"
)

// extractionFlags are shared by every command that runs the cascade.
type extractionFlags struct {
	fields string
	sep    string
	noAI   bool
	vision bool
}

func (f *extractionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fields, "fields", "", "comma separated field labels, in filename order (default from RENAME_FIELDS)")
	cmd.Flags().StringVar(&f.sep, "sep", "", "separator between field values (default from RENAME_SEPARATOR)")
	cmd.Flags().BoolVar(&f.noAI, "no-ai", false, "regex only, never call the model")
	cmd.Flags().BoolVar(&f.vision, "vision", false, "allow the vision model when OCR yields nothing")
}

// loadSettings loads the config, applies the flags and validates the result.
func (f *extractionFlags) loadSettings(cmd *cobra.Command) (*common.Config, error) {
	cfg, err := common.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if f.fields != "" {
		cfg.Rename.Fields = common.SplitList(f.fields)
	}
	if cmd.Flags().Changed("sep") {
		cfg.Rename.Separator = f.sep
	}
	if f.noAI {
		cfg.LLM.Disabled = true
	}
	if f.vision {
		cfg.LLM.EnableVision = true
	}
	if !cfg.LLM.Disabled && cfg.LLM.APIKey == "" {
		ui.Warning("OPENAI_API_KEY 未配置，仅使用正则提取")
		cfg.LLM.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table := fields.DefaultTable()
	for _, label := range cfg.Rename.Fields {
		if _, ok := table.ByLabel(label); !ok {
			ui.Warning("未知字段：%s（将输出为空）", label)
		}
	}
	return cfg, nil
}

func newOCR(cfg *common.Config, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}, logger)
}

// buildCascade wires text layer, OCR, model and renderer for one run.
func buildCascade(cfg *common.Config, table fields.Table, logger *slog.Logger) (*cascade.Cascade, error) {
	exec := runner.Exec{Logger: logger}

	raster := pdf.NewRasterizer(cfg.OCR.DPI)
	deps := cascade.Deps{
		TextLayer: pdf.NewTextLayer(cfg.OCR.Pdftotext, exec, logger),
		OCR:       newOCR(cfg, logger),
		Imager:    raster,
	}

	// A nil *StructuredExtractor must not reach Deps.AI as a non-nil interface.
	if !cfg.LLM.Disabled {
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		ai, err := llm.NewStructuredExtractor(client, table, cfg.LLM.Model, logger,
			llm.WithVisionModel(cfg.LLM.VisionModel),
			llm.WithLimiter(llm.NewRPMLimiter(cfg.LLM.RPM)),
		)
		if err != nil {
			return nil, err
		}
		deps.AI = ai
	}

	return cascade.New(table, cascade.Config{
		Labels:       cfg.Rename.Fields,
		Separator:    cfg.Rename.Separator,
		EnableVision: cfg.LLM.EnableVision,
		MaxVisionMB:  constants.MaxVisionMBDefault,
	}, deps, logger), nil
}
