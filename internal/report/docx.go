package report

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// RenderDOCX renders the entries as a Word document: a bold title, then one
// bold header per fragment followed by the answer's lines as paragraphs.
func RenderDOCX(title string, acc *Accumulator) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(title).Bold().Size("32")

	for _, e := range acc.Entries() {
		doc.AddParagraph().AddText(acc.Label + " " + strconv.Itoa(e.Index+1)).Bold()
		for _, line := range strings.Split(e.Answer, "\n") {
			doc.AddParagraph().AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
