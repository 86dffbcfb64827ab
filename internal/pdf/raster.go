package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer renders PDF pages with MuPDF.
type Rasterizer struct {
	DPI      float64
	MaxPages int // 0 = all pages
	Quality  int // JPEG quality for vision uploads
}

func NewRasterizer(dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = 300
	}
	return &Rasterizer{DPI: float64(dpi), Quality: 90}
}

// RenderPNG writes page-001.png, page-002.png, ... into dir and returns the paths in page order.
func (r *Rasterizer) RenderPNG(ctx context.Context, path, dir string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	if r.MaxPages > 0 && n > r.MaxPages {
		n = r.MaxPages
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		p := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		f, err := os.Create(p)
		if err != nil {
			return nil, err
		}
		err = png.Encode(f, img)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RenderJPEG renders a single page (0-based) as JPEG bytes.
func (r *Rasterizer) RenderJPEG(ctx context.Context, path string, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (%d pages)", page+1, doc.NumPage())
	}
	// uploads are capped at 150 DPI
	dpi := r.DPI
	if dpi > 150 {
		dpi = 150
	}
	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page+1, err)
	}
	return buf.Bytes(), nil
}
