package docread

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/modmap/internal/document"
)

// DOCXReader handles .docx manuals. Word documents carry no page breaks in
// their body XML, so heading sections become synthetic pages; this keeps
// provenance meaningful (page N = Nth section) and real docx.Table grids
// are preserved exactly.
type DOCXReader struct{}

func (p *DOCXReader) Read(r io.Reader, filename string) (document.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "modmap-docx-*.docx")
	if err != nil {
		return document.Document{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return document.Document{}, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return document.Document{}, fmt.Errorf("seek temp file: %w", err)
	}

	parsed, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return document.Document{}, fmt.Errorf("parse docx: %w", err)
	}

	doc := document.Document{Title: titleFromFilename(filename)}

	var text strings.Builder
	var tables []document.Table

	flushPage := func() {
		body := strings.TrimSpace(text.String())
		if body == "" && len(tables) == 0 {
			return
		}
		doc.Pages = append(doc.Pages, document.Page{
			Number: len(doc.Pages) + 1,
			Text:   body,
			Tables: tables,
		})
		text.Reset()
		tables = nil
	}

	for _, item := range parsed.Document.Body.Items {
		switch node := item.(type) {
		case *docx.Paragraph:
			line := docxParagraphText(node)
			if line == "" {
				continue
			}
			// New top-level heading starts a new synthetic page.
			if docxHeadingLevel(node) == 1 && text.Len() > 0 {
				flushPage()
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(line)
		case *docx.Table:
			if grid := docxTableGrid(node); len(grid.Rows) > 0 {
				tables = append(tables, grid)
			}
		}
	}
	flushPage()

	return doc, nil
}

func docxTableGrid(t *docx.Table) document.Table {
	var grid document.Table
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var cellText strings.Builder
			for _, para := range cell.Paragraphs {
				if cellText.Len() > 0 {
					cellText.WriteString(" ")
				}
				cellText.WriteString(docxParagraphText(para))
			}
			cells = append(cells, strings.TrimSpace(cellText.String()))
		}
		if len(cells) > 0 {
			grid.Rows = append(grid.Rows, cells)
		}
	}
	return grid
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "heading1":
		return 1
	case "heading2":
		return 2
	case "heading3":
		return 3
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
