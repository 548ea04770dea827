package docread

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/modmap/internal/document"
)

// HTMLReader handles HTML manuals. Top-level h1/h2 headings become
// synthetic page boundaries; <table> elements become real grids.
type HTMLReader struct{}

func (p *HTMLReader) Read(r io.Reader, filename string) (document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return document.Document{}, fmt.Errorf("parse html: %w", err)
	}

	doc := document.Document{Title: titleFromFilename(filename)}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

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

	appendText := func(t string) {
		if t == "" {
			return
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(t)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "h1", "h2":
				if text.Len() > 0 || len(tables) > 0 {
					flushPage()
				}
				appendText(textContent(n))
				return
			case "h3", "h4", "h5", "h6":
				appendText(textContent(n))
				return
			case "table":
				if grid := htmlTableGrid(n); len(grid.Rows) > 0 {
					tables = append(tables, grid)
				}
				return
			case "p", "li", "blockquote", "pre":
				appendText(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	flushPage()

	return doc, nil
}

// htmlTableGrid flattens a <table> element into a grid. Only tr/th/td
// structure is honored; nested tables collapse into their cell's text.
func htmlTableGrid(table *html.Node) document.Table {
	var grid document.Table
	var findRows func(*html.Node)
	findRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			if len(cells) > 0 {
				grid.Rows = append(grid.Rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findRows(c)
		}
	}
	findRows(table)
	return grid
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
