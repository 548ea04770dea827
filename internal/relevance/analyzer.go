package relevance

import (
	"regexp"
	"strings"

	"github.com/dgallion1/modmap/internal/document"
)

// MaterialityThreshold is the minimum table-structure score required for a
// table's text to be folded into its page's chunk text. Lower-scoring
// tables still contribute to the page score but would dilute the context
// budget.
const MaterialityThreshold = 2.0

const indicatorBonus = 5.0

// keywordCap limits each keyword's density contribution so one repeated
// word cannot dominate a page's score.
const keywordCap = 5.0

// Analysis is the scoring result for a single page. Score is the sum of
// the Breakdown contributions; each signal is independent and additive.
type Analysis struct {
	HasIndicator bool
	Score        float64
	Breakdown    map[string]float64
	TableScores  []float64
	SectionTitle string
	// Text is the page text with material table text appended, ready to
	// become the chunk text.
	Text string
}

// Strong textual signals that a page documents Modbus registers.
var strongPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmodbus\b`),
	regexp.MustCompile(`\bregister\s*(address|map|table|list)\b`),
	regexp.MustCompile(`\b40[0-9]{3,4}\b`), // holding register format
	regexp.MustCompile(`\b30[0-9]{3,4}\b`), // input register format
	regexp.MustCompile(`\bholding\s*register`),
	regexp.MustCompile(`\binput\s*register`),
	regexp.MustCompile(`\bcoil\b.*\baddress\b`),
	regexp.MustCompile(`\bread.?write\b`),
	regexp.MustCompile(`\br/?w\b`),
	regexp.MustCompile(`0x[0-9a-f]{2,4}\b`),
	regexp.MustCompile(`scaling:\s*[\d./]+`),
	regexp.MustCompile(`offset:\s*-?[\d.]+`),
	regexp.MustCompile(`data\s*range`),
}

// Column names that register tables use. Two or more distinct matches in a
// table's header row is a strong indicator on its own.
var registerHeaderVocab = map[string]bool{
	"address": true, "register": true, "offset": true, "name": true,
	"datatype": true, "type": true, "data type": true, "description": true,
	"access": true, "r/w": true, "rw": true, "read": true, "write": true,
	"function": true, "value": true, "range": true, "scaling": true,
	"parameter": true, "holding": true, "sec lvl": true, "ct": true,
}

// keywordWeights drives the density score. Ordered so the summation is
// deterministic.
var keywordWeights = []struct {
	keyword string
	weight  float64
}{
	// High value
	{"modbus", 1.5}, {"register", 1.0}, {"holding", 0.8}, {"coil", 0.8},
	{"scaling", 1.2}, {"offset", 1.0}, {"data range", 1.0},
	// Medium value
	{"address", 0.5}, {"uint16", 0.8}, {"int16", 0.8}, {"uint32", 0.8},
	{"int32", 0.8}, {"float32", 0.8}, {"r/w", 0.7}, {"read/write", 0.7},
	// Protocol-specific
	{"function code", 0.6}, {"fc03", 0.8}, {"fc06", 0.8}, {"fc16", 0.8},
	{"slave", 0.4}, {"master", 0.4}, {"rtu", 0.5}, {"tcp/ip", 0.4},
	// Industrial/equipment specific
	{"parameter", 0.3}, {"setpoint", 0.4}, {"status", 0.3},
}

// headerScores weights individual table headers. Matched by substring, first
// match wins, so the order is significant.
var headerScores = []struct {
	key    string
	weight float64
}{
	{"address", 2.5}, {"register", 2.5}, {"offset", 2.0}, {"holding", 2.0},
	{"name", 1.0}, {"parameter", 1.5}, {"description", 1.0}, {"desc", 1.0},
	{"datatype", 2.0}, {"data type", 2.0}, {"type", 1.0}, {"ct", 1.0},
	{"access", 1.5}, {"r/w", 2.0}, {"rw", 2.0}, {"read/write", 2.0},
	{"scaling", 2.0}, {"resolution", 1.5}, {"range", 1.0}, {"unit", 0.8},
	{"sec lvl", 1.0}, {"security", 0.8},
}

var (
	addressToken   = regexp.MustCompile(`(?i)^(0x[0-9a-f]+|[34]0[0-9]{2,4}|[0-9]{1,5})$`)
	hexAddress     = regexp.MustCompile(`0x[0-9a-f]{2,4}`)
	scalingPerBit  = regexp.MustCompile(`scaling:\s*[\d./]+\s*\w+/bit`)
	offsetValue    = regexp.MustCompile(`offset:\s*-?[\d.]+`)
	appendixTitle  = regexp.MustCompile(`(?i)^APPENDIX\s+[A-Z]`)
	allCapsTitle   = regexp.MustCompile(`^(\d+\.?\d*\.?\d*\s+)?[A-Z][A-Z\s]{3,50}$`)
	namedSection   = regexp.MustCompile(`(?i)^(Chapter|Section|Appendix)\s+\w`)
)

// AnalyzePage scores one page for how likely it is to contain a register
// map. Malformed input (empty text, ragged or headerless tables) degrades
// sub-scores to zero rather than failing.
func AnalyzePage(text string, tables []document.Table) Analysis {
	breakdown := make(map[string]float64)

	hasIndicator := hasRegisterIndicators(text, tables)
	if hasIndicator {
		breakdown["indicator"] = indicatorBonus
	}

	if kw := keywordDensityScore(text); kw > 0 {
		breakdown["keywords"] = kw
	}

	// Every table contributes to the page score; only material ones have
	// their text folded into the chunk.
	tableScores := make([]float64, len(tables))
	var tableTotal float64
	var tableTexts []string
	for i, t := range tables {
		s := ScoreTableStructure(t)
		tableScores[i] = s
		tableTotal += s
		if s > MaterialityThreshold {
			tableTexts = append(tableTexts, "\n[TABLE DATA]\n"+t.Text())
		}
	}
	if tableTotal > 0 {
		breakdown["tables"] = tableTotal
	}

	combined := text
	if len(tableTexts) > 0 {
		combined += strings.Join(tableTexts, "\n")
	}
	combinedLower := strings.ToLower(combined)

	title := SectionTitle(combined)
	if title != "" {
		titleLower := strings.ToLower(title)
		var bonus float64
		if containsAny(titleLower, "modbus", "register", "appendix", "data point") {
			bonus += 4.0
		}
		// Appendices carrying register vocabulary are the strongest
		// real-world signal, so the bonuses compound.
		if strings.Contains(titleLower, "appendix") &&
			containsAny(combinedLower, "register", "address", "scaling") {
			bonus += 6.0
		}
		if bonus > 0 {
			breakdown["section_title"] = bonus
		}
	}

	if hexAddress.MatchString(combinedLower) {
		breakdown["hex_address"] = 2.0
	}
	if scalingPerBit.MatchString(combinedLower) {
		breakdown["scaling"] = 3.0
	}
	if offsetValue.MatchString(combinedLower) {
		breakdown["offset"] = 2.0
	}

	// Sum in a fixed order; map iteration order would make the float
	// total run-dependent.
	var score float64
	for _, k := range []string{"indicator", "keywords", "tables", "section_title", "hex_address", "scaling", "offset"} {
		score += breakdown[k]
	}

	return Analysis{
		HasIndicator: hasIndicator,
		Score:        score,
		Breakdown:    breakdown,
		TableScores:  tableScores,
		SectionTitle: title,
		Text:         combined,
	}
}

// hasRegisterIndicators reports whether the page text matches a strong
// pattern, or any table's header row shares at least two terms with the
// register-column vocabulary.
func hasRegisterIndicators(text string, tables []document.Table) bool {
	textLower := strings.ToLower(text)
	for _, p := range strongPatterns {
		if p.MatchString(textLower) {
			return true
		}
	}

	for _, t := range tables {
		matched := make(map[string]bool)
		for _, h := range t.Headers() {
			if h != "" && registerHeaderVocab[h] {
				matched[h] = true
			}
		}
		if len(matched) >= 2 {
			return true
		}
	}
	return false
}

// keywordDensityScore sums per-keyword occurrence counts times weight,
// capped per keyword.
func keywordDensityScore(text string) float64 {
	textLower := strings.ToLower(text)
	if strings.TrimSpace(textLower) == "" {
		return 0
	}

	var score float64
	for _, kw := range keywordWeights {
		count := strings.Count(textLower, kw.keyword)
		contribution := float64(count) * kw.weight
		if contribution > keywordCap {
			contribution = keywordCap
		}
		score += contribution
	}
	return score
}

// ScoreTableStructure scores how register-map-like a table grid is: header
// vocabulary, address-shaped cells in the leading columns, and sheer size.
func ScoreTableStructure(t document.Table) float64 {
	if len(t.Rows) < 2 {
		return 0
	}

	var score float64
	for _, header := range t.Headers() {
		if header == "" {
			continue
		}
		for _, hs := range headerScores {
			if strings.Contains(header, hs.key) {
				score += hs.weight
				break
			}
		}
	}

	// Count data rows (first 9) with an address-shaped cell in the first
	// three columns.
	addressRows := 0
	limit := len(t.Rows)
	if limit > 10 {
		limit = 10
	}
	for _, row := range t.Rows[1:limit] {
		cols := len(row)
		if cols > 3 {
			cols = 3
		}
		for _, cell := range row[:cols] {
			if cell != "" && addressToken.MatchString(strings.TrimSpace(cell)) {
				addressRows++
				break
			}
		}
	}
	switch {
	case addressRows >= 3:
		score += 4.0
	case addressRows >= 1:
		score += 2.0
	}

	// Register tables are usually large.
	switch {
	case len(t.Rows) > 20:
		score += 2.0
	case len(t.Rows) > 10:
		score += 1.0
	}

	return score
}

// SectionTitle extracts a section/chapter title from the first lines of a
// page, or "" if none looks like one.
func SectionTitle(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if appendixTitle.MatchString(line) {
			return line
		}
		if allCapsTitle.MatchString(line) {
			return line
		}
		if namedSection.MatchString(line) {
			return line
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
