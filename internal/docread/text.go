package docread

import (
	"io"
	"strings"

	"github.com/dgallion1/modmap/internal/document"
)

// TextReader handles plain-text manuals, typically pdftotext output saved
// to disk. Form feeds separate pages; without them the whole file is one
// page.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, filename string) (document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return document.Document{}, err
	}

	doc := document.Document{Title: titleFromFilename(filename)}
	for i, pageText := range strings.Split(string(data), "\f") {
		doc.Pages = append(doc.Pages, document.Page{
			Number: i + 1,
			Text:   strings.TrimRight(pageText, "\n"),
			Tables: DetectTables(pageText),
		})
	}
	return doc, nil
}
