package docread

import (
	"regexp"
	"strings"

	"github.com/dgallion1/modmap/internal/document"
)

// Layout-preserving text extraction flattens table cells onto single lines
// separated by column gaps. DetectTables recovers grids from such text:
// consecutive lines that split into two or more cells form a table.

var cellGap = regexp.MustCompile(`\t+| {2,}`)

// DetectTables scans page text for runs of table-shaped lines and returns
// them as grids. A run shorter than two rows is ignored — a lone aligned
// line is usually a heading, not a table.
func DetectTables(text string) []document.Table {
	var tables []document.Table
	var current [][]string

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, document.Table{Rows: current})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		row := splitRow(line)
		if len(row) >= 2 {
			current = append(current, row)
		} else {
			flush()
		}
	}
	flush()

	return tables
}

// splitRow breaks one line into cells, preferring explicit pipe separators
// over column gaps. Returns nil for lines that are not table-shaped.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var parts []string
	if strings.Contains(line, "|") {
		parts = strings.Split(line, "|")
	} else {
		parts = cellGap.Split(line, -1)
	}

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	if len(cells) < 2 {
		return nil
	}
	return cells
}
