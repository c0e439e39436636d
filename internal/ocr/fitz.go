package ocr

import (
	"context"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/dgallion1/regdigest/internal/pdfpages"
)

// FitzRasterizer renders pages with MuPDF.
type FitzRasterizer struct{}

func (FitzRasterizer) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &pdfpages.DocumentOpenError{Path: path, Err: err}
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d *fitzDocument) Render(ctx context.Context, page, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.doc.ImageDPI(page, float64(dpi))
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
