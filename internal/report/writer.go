package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	FormatText = "txt"
	FormatHTML = "html"
	FormatDOCX = "docx"
)

// RawTextTopic names the file holding the unprocessed OCR text.
const RawTextTopic = "texto_extraido"

// Uploader mirrors written files to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte, contentType string) error
}

// Writer writes report files into one directory. Every file is written in a
// single call and replaces whatever was there.
type Writer struct {
	dir      string
	formats  []string
	uploader Uploader
	log      *slog.Logger
}

// NewWriter returns a writer for dir. The text format is always produced;
// formats may add "html" and "docx". uploader may be nil.
func NewWriter(dir string, formats []string, uploader Uploader, log *slog.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = slog.Default()
	}
	var extra []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == FormatHTML || f == FormatDOCX {
			extra = append(extra, f)
		}
	}
	return &Writer{dir: dir, formats: extra, uploader: uploader, log: log}
}

func (w *Writer) Dir() string { return w.dir }

// FileName returns "{topic}_{volume}.{ext}" with path separators removed.
func FileName(topic, volumeID, ext string) string {
	return sanitizeFilename(topic + "_" + volumeID + "." + ext)
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// WriteText writes text verbatim to {topic}_{volume}.txt and returns its
// path.
func (w *Writer) WriteText(ctx context.Context, topic, volumeID, text string) (string, error) {
	return w.write(ctx, FileName(topic, volumeID, FormatText), []byte(text), "text/plain; charset=utf-8")
}

// WriteTopic writes the accumulated answers as text plus any extra formats,
// returning the paths written. Empty accumulators still produce files.
func (w *Writer) WriteTopic(ctx context.Context, volumeID string, acc *Accumulator) ([]string, error) {
	path, err := w.WriteText(ctx, acc.Topic, volumeID, acc.String())
	if err != nil {
		return nil, err
	}
	paths := []string{path}

	for _, f := range w.formats {
		var (
			body        []byte
			contentType string
		)
		title := acc.Topic + " " + volumeID
		switch f {
		case FormatHTML:
			body, err = RenderHTML(title, acc)
			contentType = "text/html; charset=utf-8"
		case FormatDOCX:
			body, err = RenderDOCX(title, acc)
			contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		}
		if err != nil {
			return paths, fmt.Errorf("render %s %s: %w", acc.Topic, f, err)
		}
		p, err := w.write(ctx, FileName(acc.Topic, volumeID, f), body, contentType)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (w *Writer) write(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	w.log.Debug("file written", "path", path, "bytes", len(body))

	if w.uploader != nil {
		if err := w.uploader.Upload(ctx, name, body, contentType); err != nil {
			return path, fmt.Errorf("upload %s: %w", name, err)
		}
	}
	return path, nil
}
