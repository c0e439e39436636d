package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/dgallion1/regdigest/internal/pdfpages"
)

// writeLetterPDF writes a document of blank US Letter pages (612x792 pt).
func writeLetterPDF(t *testing.T, pages int) string {
	t.Helper()

	var buf bytes.Buffer
	n := 2 + pages
	offsets := make([]int, n+1)
	write := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	buf.WriteString("%PDF-1.4\n")
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := range pages {
		write(3+i, "<< /Type /Page /Parent 2 0 R /Resources << >> /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", n+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", n+1, xref)

	path := filepath.Join(t.TempDir(), "tomo.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

// checkLetterAt300 expects 8.5x11in at 300 DPI, allowing one pixel of
// rounding.
func checkLetterAt300(t *testing.T, img image.Image) {
	t.Helper()
	b := img.Bounds()
	if abs(b.Dx()-2550) > 1 || abs(b.Dy()-3300) > 1 {
		t.Errorf("expected about 2550x3300, got %dx%d", b.Dx(), b.Dy())
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestFitzRasterizer_Render(t *testing.T) {
	path := writeLetterPDF(t, 2)

	doc, err := FitzRasterizer{}.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	if doc.NumPage() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPage())
	}
	img, err := doc.Render(context.Background(), 1, 300)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	checkLetterAt300(t, img)
}

func TestFitzRasterizer_OpenMissing(t *testing.T) {
	_, err := FitzRasterizer{}.Open(filepath.Join(t.TempDir(), "missing.pdf"))
	var openErr *pdfpages.DocumentOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *DocumentOpenError, got %v", err)
	}
}

func TestFitzRasterizer_RenderCancelled(t *testing.T) {
	doc, err := FitzRasterizer{}.Open(writeLetterPDF(t, 1))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := doc.Render(ctx, 0, 300); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPdftoppmRasterizer_Render(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	r := PdftoppmRasterizer{}
	if !r.Available() {
		t.Fatal("expected Available to agree with PATH lookup")
	}

	doc, err := r.Open(writeLetterPDF(t, 3))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	if doc.NumPage() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.NumPage())
	}
	img, err := doc.Render(context.Background(), 2, 300)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	checkLetterAt300(t, img)
}

func TestPdftoppmRasterizer_RenderOutOfRange(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	doc, err := PdftoppmRasterizer{}.Open(writeLetterPDF(t, 1))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := doc.Render(context.Background(), 5, 300); err == nil {
		t.Error("expected error rendering a page past the end")
	}
}
