// Package ocr recovers text from scanned PDF pages: each page is rendered to a
// raster image and passed through a character recognizer.
package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/regdigest/internal/metrics"
)

// Options configures rendering and recognition.
type Options struct {
	DPI      int    // Raster resolution, 300 by default.
	Language string // Tesseract language code, "spa" by default.
}

// DefaultOptions returns 300 DPI Spanish recognition.
func DefaultOptions() Options {
	return Options{DPI: 300, Language: "spa"}
}

// Rasterizer opens documents for page rendering.
type Rasterizer interface {
	Open(path string) (Document, error)
}

// Document is an open, renderable PDF.
type Document interface {
	NumPage() int
	// Render draws the 0-based page at the given resolution.
	Render(ctx context.Context, page, dpi int) (image.Image, error)
	Close() error
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
}

// EngineError reports a rendering or recognition failure on a page.
type EngineError struct {
	Stage string // "render" or "recognize"
	Page  int    // 0-based page index, -1 when not page specific
	Err   error
}

func (e *EngineError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("ocr %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("ocr %s page %d: %v", e.Stage, e.Page+1, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Recoverer runs OCR over every page of a document.
type Recoverer struct {
	raster Rasterizer
	recog  Recognizer
	opts   Options
	log    *slog.Logger
}

func NewRecoverer(raster Rasterizer, recog Recognizer, opts Options, log *slog.Logger) *Recoverer {
	def := DefaultOptions()
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.Language == "" {
		opts.Language = def.Language
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recoverer{raster: raster, recog: recog, opts: opts, log: log}
}

// Options returns the effective rendering and recognition options.
func (r *Recoverer) Options() Options {
	return r.opts
}

// Recover returns the recognized text of every page of the document at path,
// concatenated in page order without separators. A document with no
// recognizable characters yields an empty or whitespace-only string and a
// nil error.
func (r *Recoverer) Recover(ctx context.Context, path string) (string, error) {
	doc, err := r.raster.Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	pages := doc.NumPage()
	log := r.log.With("path", path, "pages", pages, "dpi", r.opts.DPI, "lang", r.opts.Language)
	log.Info("ocr started")

	var sb strings.Builder
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		text, err := r.page(ctx, doc, i)
		metrics.CaptureOCRPage(time.Since(start), err)
		if err != nil {
			return "", err
		}
		log.Debug("page recognized", "page", i+1, "chars", utf8.RuneCountInString(text), "duration_ms", time.Since(start).Milliseconds())
		sb.WriteString(text)
	}

	log.Info("ocr finished", "chars", utf8.RuneCountInString(sb.String()))
	return sb.String(), nil
}

func (r *Recoverer) page(ctx context.Context, doc Document, i int) (string, error) {
	img, err := doc.Render(ctx, i, r.opts.DPI)
	if err != nil {
		return "", &EngineError{Stage: "render", Page: i, Err: err}
	}
	text, err := r.recog.Recognize(ctx, img, r.opts)
	if err != nil {
		return "", &EngineError{Stage: "recognize", Page: i, Err: err}
	}
	return text, nil
}
