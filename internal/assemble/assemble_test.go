package assemble

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/modmap/internal/document"
)

func chunk(page int, score float64, text string) document.Chunk {
	return document.Chunk{Text: text, PageNumber: page, RelevanceScore: score}
}

func TestTierForBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		score float64
		want  Tier
	}{
		{10.0, TierHigh},
		{8.1, TierHigh},
		{8.0, TierMedium}, // thresholds are strict
		{3.1, TierMedium},
		{3.0, TierLow},
		{0.0, TierLow},
	}
	for _, tt := range tests {
		if got := cfg.TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestAssemblePrioritizesHighTier(t *testing.T) {
	chunks := []document.Chunk{
		chunk(1, 12.0, "high page one"),
		chunk(2, 10.0, "high page two"),
		chunk(3, 9.0, "high page three"),
		chunk(4, 5.0, "medium page"),
		chunk(5, 1.0, "low page"),
	}
	ctx := Assemble(chunks, nil, DefaultConfig())

	if !strings.Contains(ctx.Text, "PAGE 1 (Relevance: HIGH - Score: 12.0)") {
		t.Fatalf("expected HIGH header for page 1 in:\n%s", ctx.Text)
	}
	if !strings.Contains(ctx.Text, "PAGE 4 (Relevance: MEDIUM)") {
		t.Fatal("expected MEDIUM header for page 4")
	}
	// Three HIGH chunks means the LOW fallback never fires.
	if strings.Contains(ctx.Text, "low page") {
		t.Fatal("expected low tier to be excluded")
	}
	if !reflect.DeepEqual(ctx.Summary.IncludedPages, []int{1, 2, 3, 4}) {
		t.Fatalf("expected pages [1 2 3 4], got %v", ctx.Summary.IncludedPages)
	}
	if ctx.Summary.HighCount != 3 || ctx.Summary.MediumCount != 1 || ctx.Summary.LowCount != 1 {
		t.Fatalf("unexpected tier counts: %+v", ctx.Summary)
	}
}

func TestAssembleSkipsOversizedBlockAndContinues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokens = 200
	cfg.CharsPerToken = 1 // 200-char budget

	chunks := []document.Chunk{
		chunk(1, 12.0, strings.Repeat("x", 500)),
		chunk(2, 10.0, "short"),
		chunk(3, 9.0, "also short"),
	}
	ctx := Assemble(chunks, nil, cfg)

	if !reflect.DeepEqual(ctx.Summary.IncludedPages, []int{2}) {
		t.Fatalf("expected only page 2 to fit, got %v", ctx.Summary.IncludedPages)
	}
	if ctx.Summary.TotalChars > cfg.MaxChars() {
		t.Fatalf("budget exceeded: %d > %d", ctx.Summary.TotalChars, cfg.MaxChars())
	}
}

func TestAssembleMediumCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokens = 1000
	cfg.CharsPerToken = 1

	// Fits the full budget but not the 85% medium ceiling.
	chunks := []document.Chunk{
		chunk(1, 5.0, strings.Repeat("m", 900)),
	}
	ctx := Assemble(chunks, nil, cfg)
	if len(ctx.Summary.IncludedPages) != 0 {
		t.Fatalf("expected medium chunk rejected by ceiling, got %v", ctx.Summary.IncludedPages)
	}
}

func TestAssembleLowFallback(t *testing.T) {
	chunks := []document.Chunk{
		chunk(1, 2.0, "device configuration values"),
		chunk(2, 1.0, "installation notes"),
	}
	ctx := Assemble(chunks, nil, DefaultConfig())

	if !strings.Contains(ctx.Text, "--- PAGE 1 ---") {
		t.Fatalf("expected fallback block for page 1 in:\n%s", ctx.Text)
	}
	if !reflect.DeepEqual(ctx.Summary.IncludedPages, []int{1, 2}) {
		t.Fatalf("expected pages [1 2], got %v", ctx.Summary.IncludedPages)
	}
}

func TestAssembleFallbackSuppressedWhenHighFills(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokens = 1000
	cfg.CharsPerToken = 1

	// One HIGH chunk (below MinHighForFallback) that fills past the 40%
	// trigger point.
	chunks := []document.Chunk{
		chunk(1, 12.0, strings.Repeat("h", 500)),
		chunk(2, 1.0, "low text"),
	}
	ctx := Assemble(chunks, nil, cfg)
	if strings.Contains(ctx.Text, "--- PAGE 2 ---") {
		t.Fatal("expected fallback suppressed once budget use passes the trigger")
	}
}

func TestAssembleHintPreamble(t *testing.T) {
	hints := []string{"hint one", "hint two", "hint one"}
	ctx := Assemble([]document.Chunk{chunk(1, 12.0, "content")}, hints, DefaultConfig())

	if !strings.HasPrefix(ctx.Text, "\n[DOCUMENT ADDRESSING HINTS]\nhint one\nhint two\n") {
		t.Fatalf("expected deduplicated hint preamble, got:\n%q", ctx.Text)
	}
}

func TestAssembleHintLimit(t *testing.T) {
	hints := []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}
	ctx := Assemble(nil, hints, DefaultConfig())
	if strings.Contains(ctx.Text, "h6") {
		t.Fatalf("expected at most 5 hints, got:\n%q", ctx.Text)
	}
	if !strings.Contains(ctx.Text, "h5") {
		t.Fatalf("expected first 5 hints kept, got:\n%q", ctx.Text)
	}
}

func TestAssembleZeroBudgetStillEmitsHints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokens = 0

	ctx := Assemble([]document.Chunk{chunk(1, 12.0, "content")}, []string{"hint"}, cfg)
	if !strings.Contains(ctx.Text, "[DOCUMENT ADDRESSING HINTS]") {
		t.Fatal("expected hint preamble even with a zero budget")
	}
	if len(ctx.Summary.IncludedPages) != 0 {
		t.Fatalf("expected no pages with zero budget, got %v", ctx.Summary.IncludedPages)
	}
	if strings.Contains(ctx.Text, "content") {
		t.Fatal("expected no page content with zero budget")
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{
		TotalPages:    10,
		HighCount:     2,
		MediumCount:   3,
		LowCount:      5,
		IncludedPages: []int{1, 4},
		TotalChars:    1234,
	}
	text := s.String()
	for _, want := range []string{
		"Total pages in document: 10",
		"High relevance pages: 2",
		"Pages included in context: [1 4]",
		"Total context size: 1234 characters",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
