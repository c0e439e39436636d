// Package pdfpages cuts a contiguous page range out of a source PDF into a
// standalone intermediate document.
package pdfpages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageRange is an inclusive, 0-based range of page indices.
type PageRange struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int {
	return r.End - r.Start + 1
}

// Selection renders the range as a 1-based page selection ("53-68").
func (r PageRange) Selection() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start+1)
	}
	return fmt.Sprintf("%d-%d", r.Start+1, r.End+1)
}

// Validate checks the range against a document with pageCount pages.
func (r PageRange) Validate(pageCount int) error {
	if r.Start < 0 || r.Start > r.End || r.End >= pageCount {
		return &PageRangeError{Start: r.Start, End: r.End, PageCount: pageCount}
	}
	return nil
}

func (r PageRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// DocumentOpenError reports a source path that is not a readable PDF.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %s: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// PageRangeError reports indices outside 0 <= start <= end < page count.
type PageRangeError struct {
	Start, End, PageCount int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page range [%d,%d] out of bounds for document with %d pages", e.Start, e.End, e.PageCount)
}

// Count returns the number of pages in the PDF at path.
func Count(path string) (n int, err error) {
	// ledongthuc/pdf panics on some malformed trailers.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, &DocumentOpenError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, &DocumentOpenError{Path: path, Err: err}
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// Extractor writes page subsets of a source PDF.
type Extractor struct {
	conf *model.Configuration
}

func NewExtractor() *Extractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref table, so Count can read the artifact back.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return &Extractor{conf: conf}
}

// Extract copies pages [r.Start, r.End] of src, in source order, into a new
// document at dst, replacing any file already there. It returns the number of
// pages written.
func (e *Extractor) Extract(ctx context.Context, src, dst string, r PageRange) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	total, err := Count(src)
	if err != nil {
		return 0, err
	}
	if err := r.Validate(total); err != nil {
		return 0, err
	}

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	// The artifact from a previous run is replaced, never appended to.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove stale artifact: %w", err)
	}

	if err := api.TrimFile(src, dst, []string{r.Selection()}, e.conf); err != nil {
		return 0, fmt.Errorf("write page range %s: %w", r, err)
	}

	written, err := Count(dst)
	if err != nil {
		return 0, fmt.Errorf("verify extracted volume: %w", err)
	}
	if written != r.Len() {
		return written, fmt.Errorf("extracted %d pages, expected %d", written, r.Len())
	}
	return written, nil
}
