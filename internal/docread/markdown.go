package docread

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/modmap/internal/document"
)

// MarkdownReader handles Markdown manuals using goldmark with the table
// extension, so pipe tables arrive as real grids rather than text.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, filename string) (document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return document.Document{}, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := document.Document{Title: titleFromFilename(filename)}

	var body strings.Builder
	var tables []document.Table

	flushPage := func() {
		trimmed := strings.TrimSpace(body.String())
		if trimmed == "" && len(tables) == 0 {
			return
		}
		doc.Pages = append(doc.Pages, document.Page{
			Number: len(doc.Pages) + 1,
			Text:   trimmed,
			Tables: tables,
		})
		body.Reset()
		tables = nil
	}

	appendText := func(t string) {
		if t == "" {
			return
		}
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		body.WriteString(t)
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			// h1/h2 delimit synthetic pages, like chapter boundaries.
			if node.Level <= 2 && (body.Len() > 0 || len(tables) > 0) {
				flushPage()
			}
			appendText(string(node.Text(src)))
		case *east.Table:
			if grid := markdownTableGrid(node, src); len(grid.Rows) > 0 {
				tables = append(tables, grid)
			}
		default:
			appendText(extractText(n, src))
		}
	}
	flushPage()

	return doc, nil
}

func markdownTableGrid(table *east.Table, src []byte) document.Table {
	var grid document.Table
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(string(cell.Text(src))))
		}
		if len(cells) > 0 {
			grid.Rows = append(grid.Rows, cells)
		}
	}
	return grid
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			part := extractText(c, src)
			if part != "" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(part)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
