package document

import "strings"

// Document is a parsed manual: ordered pages plus a title.
type Document struct {
	Title string // Document title (from metadata or filename)
	Pages []Page // Ordered, 1-based page numbers
}

// Page is one page of a manual as delivered by a reader.
type Page struct {
	Number int     // 1-based, unique
	Text   string  // Raw page text (may be empty)
	Tables []Table // Extracted table grids, in page order
}

// Table is a raw table grid. Rows may be ragged and cells may be empty;
// consumers must tolerate both.
type Table struct {
	Rows [][]string
}

// Text renders the grid as pipe-separated lines, preserving row structure.
func (t Table) Text() string {
	var b strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(strings.TrimSpace(cell))
		}
	}
	return b.String()
}

// Headers returns the first row lowercased and trimmed, or nil for an
// empty table.
func (t Table) Headers() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	headers := make([]string, 0, len(t.Rows[0]))
	for _, h := range t.Rows[0] {
		headers = append(headers, strings.ToLower(strings.TrimSpace(h)))
	}
	return headers
}

// Chunk is one page's content annotated for relevance ranking. Exactly one
// chunk exists per page; qualifying table text is folded into Text.
type Chunk struct {
	Text           string  // Page text plus material table text
	PageNumber     int     // Provenance, carried into the assembled context
	RelevanceScore float64 // Non-negative, additive signal sum
	ContainsTable  bool    // True iff the page had at least one table
	SectionTitle   string  // Heuristic title from leading lines ("" if none)
	Tables         []Table // Retained raw grids for re-scoring/debugging
}
