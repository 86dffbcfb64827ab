package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	tmpDir, err := os.MkdirTemp("", "ir-pages-*")
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF}, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	var warns []string
	pages, err := e.renderPages(ctx, path, tmpDir)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: []string{err.Error()}}, err
	}

	texts := make([]string, 0, len(pages))
	for _, img := range pages {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		texts = append(texts, txt)
	}
	if len(texts) == 0 {
		return ExtractionResult{SourceType: constants.PDF, Pages: len(pages), Warnings: warns},
			fmt.Errorf("no page could be recognized")
	}

	text := JoinPages(texts)
	return ExtractionResult{
		Text:       text,
		Pages:      len(pages),
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(text),
	}, nil
}

// renderPages uses the in-process renderer and falls back to pdftoppm.
func (e *Extractor) renderPages(ctx context.Context, path, dir string) ([]string, error) {
	if e.renderer != nil {
		pages, err := e.renderer.RenderPNG(ctx, path, dir)
		if err == nil && len(pages) > 0 {
			return pages, nil
		}
		e.logger.Warn("ocr.render.fallback_pdftoppm", "path", path, "error", err)
	}

	prefix := filepath.Join(dir, "pp")
	// pdftoppm -r 300 -png <in.pdf> <tmp/pp>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, errb)
	}

	// pp-1.png, pp-2.png, ... (zero padded when there are 10+ pages)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}
	return matches, nil
}
