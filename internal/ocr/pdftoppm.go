package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/dgallion1/regdigest/internal/pdfpages"
)

// PdftoppmRasterizer renders pages by shelling out to poppler's pdftoppm.
// It handles documents MuPDF refuses to open.
type PdftoppmRasterizer struct{}

// Available reports whether pdftoppm is on PATH.
func (PdftoppmRasterizer) Available() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

func (PdftoppmRasterizer) Open(path string) (Document, error) {
	n, err := pdfpages.Count(path)
	if err != nil {
		return nil, err
	}
	return &pdftoppmDocument{path: path, pages: n}, nil
}

type pdftoppmDocument struct {
	path  string
	pages int
}

func (d *pdftoppmDocument) NumPage() int { return d.pages }

func (d *pdftoppmDocument) Render(ctx context.Context, page, dpi int) (image.Image, error) {
	p := strconv.Itoa(page + 1)
	// No output root: the single page PNG goes to stdout.
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-singlefile",
		"-r", strconv.Itoa(dpi), "-f", p, "-l", p, d.path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode pdftoppm output: %w", err)
	}
	return img, nil
}

func (d *pdftoppmDocument) Close() error { return nil }

// FallbackRasterizer opens documents with Primary and retries with Fallback
// when Primary cannot open the file.
type FallbackRasterizer struct {
	Primary  Rasterizer
	Fallback Rasterizer
	Log      *slog.Logger
}

func (f FallbackRasterizer) Open(path string) (Document, error) {
	doc, err := f.Primary.Open(path)
	if err == nil || f.Fallback == nil {
		return doc, err
	}
	if f.Log != nil {
		f.Log.Warn("primary rasterizer failed, using fallback", "path", path, "error", err)
	}
	return f.Fallback.Open(path)
}

// NewRasterizer returns the MuPDF rasterizer, wrapped with the pdftoppm
// fallback when enabled and available.
func NewRasterizer(usePdftoppm bool, log *slog.Logger) Rasterizer {
	if !usePdftoppm {
		return FitzRasterizer{}
	}
	fallback := PdftoppmRasterizer{}
	if !fallback.Available() {
		if log != nil {
			log.Warn("pdftoppm not found, rasterizer fallback disabled")
		}
		return FitzRasterizer{}
	}
	return FallbackRasterizer{Primary: FitzRasterizer{}, Fallback: fallback, Log: log}
}
