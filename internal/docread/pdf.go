package docread

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/modmap/internal/document"
)

// PDFReader extracts per-page text from PDF manuals. It tries the Go
// library first, then falls back to pdftotext if available. Table grids
// are recovered from the layout text since neither extractor preserves
// cell structure.
type PDFReader struct {
	FallbackPdftotext bool
}

func (p *PDFReader) Read(r io.Reader, filename string) (document.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "modmap-pdf-*.pdf")
	if err != nil {
		return document.Document{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return document.Document{}, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pageTexts, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pageTexts, err = extractPdftotextPages(tmpPath)
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := document.Document{Title: titleFromFilename(filename)}
	for i, text := range pageTexts {
		doc.Pages = append(doc.Pages, document.Page{
			Number: i + 1,
			Text:   strings.TrimRight(text, "\n"),
			Tables: DetectTables(text),
		})
	}
	return doc, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page degrades to empty text; the scorer copes.
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

func extractPdftotextPages(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds.
	return strings.Split(string(out), "\f"), nil
}
