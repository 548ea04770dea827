// Package assemble builds the bounded extraction context from ranked
// chunks. The packing is a deliberate greedy simplification: blocks that
// would overflow are skipped whole and the walk continues, so a large page
// never starves smaller high-value pages behind it. It is not an optimal
// knapsack and must not become one — the set of included pages for a given
// budget is part of the component's contract.
package assemble

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/modmap/internal/document"
	"github.com/dgallion1/modmap/internal/relevance"
)

// Tier buckets chunks by relevance for assembly priority.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Config fixes the assembly thresholds and ceilings. These are tuned
// constants, not values derived from document statistics.
type Config struct {
	MaxTokens     int     // Abstract token budget from the caller
	CharsPerToken float64 // Token→character conversion ratio

	HighThreshold   float64 // Score above which a chunk is HIGH
	MediumThreshold float64 // Score above which a chunk is MEDIUM

	MediumCeiling   float64 // Fraction of budget MEDIUM chunks may fill
	FallbackCeiling float64 // Fraction of budget LOW fallback may fill
	FallbackTrigger float64 // LOW fallback only below this fill fraction

	MaxHints           int // Hints surfaced in the preamble
	MaxFallbackChunks  int // LOW chunks considered in fallback
	MinHighForFallback int // Fallback requires fewer HIGH chunks than this
}

// DefaultConfig returns the tuned assembly parameters.
func DefaultConfig() Config {
	return Config{
		MaxTokens:          80000,
		CharsPerToken:      3.5,
		HighThreshold:      8.0,
		MediumThreshold:    3.0,
		MediumCeiling:      0.85,
		FallbackCeiling:    0.6,
		FallbackTrigger:    0.4,
		MaxHints:           5,
		MaxFallbackChunks:  10,
		MinHighForFallback: 3,
	}
}

// MaxChars converts the token budget into the character ceiling.
func (c Config) MaxChars() int {
	return int(float64(c.MaxTokens) * c.CharsPerToken)
}

// TierFor places a score in exactly one tier.
func (c Config) TierFor(score float64) Tier {
	switch {
	case score > c.HighThreshold:
		return TierHigh
	case score > c.MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Summary describes what went into the assembled context. It accompanies
// the context to the extractor as calibration metadata and is a pure
// function of the assembly inputs.
type Summary struct {
	TotalPages    int   `json:"total_pages"`
	HighCount     int   `json:"high_count"`
	MediumCount   int   `json:"medium_count"`
	LowCount      int   `json:"low_count"`
	IncludedPages []int `json:"included_pages"` // ascending
	TotalChars    int   `json:"total_chars"`
}

func (s Summary) String() string {
	return fmt.Sprintf(`Document Analysis Summary:
- Total pages in document: %d
- High relevance pages: %d (scores > 8.0)
- Medium relevance pages: %d (scores 3.0-8.0)
- Low relevance pages: %d (scores < 3.0)
- Pages included in context: %v
- Total context size: %d characters`,
		s.TotalPages, s.HighCount, s.MediumCount, s.LowCount,
		s.IncludedPages, s.TotalChars)
}

// Context is the assembled extraction input.
type Context struct {
	Text    string
	Summary Summary
}

const separator = "============================================================"

// Assemble fills the character budget tier by tier from ranked chunks.
// The hint preamble is emitted unconditionally before any page content —
// addressing conventions change how every page must be read. Within each
// tier, a block that would overflow is skipped entirely (partial blocks
// would corrupt table structure) and the walk continues.
func Assemble(chunks []document.Chunk, hints []string, cfg Config) Context {
	maxChars := cfg.MaxChars()

	var high, medium, low []document.Chunk
	for _, c := range chunks {
		switch cfg.TierFor(c.RelevanceScore) {
		case TierHigh:
			high = append(high, c)
		case TierMedium:
			medium = append(medium, c)
		default:
			low = append(low, c)
		}
	}

	var parts []string
	currentLen := 0
	var includedPages []int

	if deduped := relevance.DedupeHints(hints, cfg.MaxHints); len(deduped) > 0 {
		preamble := "\n[DOCUMENT ADDRESSING HINTS]\n" + strings.Join(deduped, "\n") + "\n"
		parts = append(parts, preamble)
		currentLen += len(preamble)
	}

	for _, chunk := range high {
		block := renderHigh(chunk)
		if currentLen+len(block) <= maxChars {
			parts = append(parts, block)
			currentLen += len(block)
			includedPages = append(includedPages, chunk.PageNumber)
		}
	}

	// MEDIUM fills against a reduced ceiling, leaving headroom as a
	// safety margin.
	mediumMax := float64(maxChars) * cfg.MediumCeiling
	for _, chunk := range medium {
		block := renderMedium(chunk)
		if float64(currentLen+len(block)) <= mediumMax {
			parts = append(parts, block)
			currentLen += len(block)
			includedPages = append(includedPages, chunk.PageNumber)
		}
	}

	// A document with almost no strong signal is probably using unusual
	// terminology; its low-relevance pages are the best fallback context
	// available.
	if len(high) < cfg.MinHighForFallback &&
		float64(currentLen) < float64(maxChars)*cfg.FallbackTrigger {
		fallback := low
		if len(fallback) > cfg.MaxFallbackChunks {
			fallback = fallback[:cfg.MaxFallbackChunks]
		}
		fallbackMax := float64(maxChars) * cfg.FallbackCeiling
		for _, chunk := range fallback {
			block := fmt.Sprintf("\n\n--- PAGE %d ---\n%s", chunk.PageNumber, chunk.Text)
			if float64(currentLen+len(block)) <= fallbackMax {
				parts = append(parts, block)
				currentLen += len(block)
				includedPages = append(includedPages, chunk.PageNumber)
			}
		}
	}

	sorted := append([]int(nil), includedPages...)
	sort.Ints(sorted)

	return Context{
		Text: strings.Join(parts, ""),
		Summary: Summary{
			TotalPages:    len(chunks),
			HighCount:     len(high),
			MediumCount:   len(medium),
			LowCount:      len(low),
			IncludedPages: sorted,
			TotalChars:    currentLen,
		},
	}
}

func renderHigh(chunk document.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n%s\nPAGE %d (Relevance: HIGH - Score: %.1f)\n",
		separator, chunk.PageNumber, chunk.RelevanceScore)
	if chunk.SectionTitle != "" {
		fmt.Fprintf(&b, "Section: %s\n", chunk.SectionTitle)
	}
	fmt.Fprintf(&b, "%s\n%s", separator, chunk.Text)
	return b.String()
}

func renderMedium(chunk document.Chunk) string {
	return fmt.Sprintf("\n\n%s\nPAGE %d (Relevance: MEDIUM)\n%s\n%s",
		separator, chunk.PageNumber, separator, chunk.Text)
}
