package report

import (
	"bytes"
	"fmt"
	"html"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML renders the entries as a standalone HTML page. Answers are
// treated as Markdown, so tables and lists returned by the model survive.
func RenderHTML(title string, acc *Accumulator) ([]byte, error) {
	var src bytes.Buffer
	for _, e := range acc.Entries() {
		src.WriteString("## " + acc.Label + " " + strconv.Itoa(e.Index+1) + "\n\n")
		src.WriteString(e.Answer)
		src.WriteString("\n\n")
	}

	var body bytes.Buffer
	if err := markdown.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	escaped := html.EscapeString(title)
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html lang=\"es\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", escaped, escaped)
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
