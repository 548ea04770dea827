package relevance

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// hintPattern pairs a convention-detecting regex with a short label. The
// emitted hint carries a window of surrounding text so the downstream
// extractor sees the convention in context.
type hintPattern struct {
	re    *regexp.Regexp
	label string
}

var hintPatterns = []hintPattern{
	{regexp.MustCompile(`add\s*40[,.]?000\s*to\s*(the\s*)?address`), "PDU addressing: add 40000 to addresses"},
	{regexp.MustCompile(`pdu\s*addressing`), "Uses PDU addressing convention"},
	{regexp.MustCompile(`addresses?\s*(are|is)\s*(in\s*)?(the\s*)?range\s*\d+`), "Address range specified"},
	{regexp.MustCompile(`base\s*address\s*(of|is|:)?\s*\d+`), "Base address specified"},
	{regexp.MustCompile(`(big|little)\s*endian`), "Byte order specified"},
	{regexp.MustCompile(`word\s*swap`), "Word swapping mentioned"},
	{regexp.MustCompile(`high\s*word\s*first|low\s*word\s*first`), "Word order specified"},
}

// Window sizes around a hint match, in bytes.
const (
	hintContextBefore = 50
	hintContextAfter  = 100
)

// CollectHints scans one page's text for document-wide addressing and
// byte-order conventions. Multiple patterns may fire on one page; the same
// pattern firing on several pages yields several hints (deduplicated by
// exact string at assembly time, not here).
func CollectHints(text string) []string {
	if text == "" {
		return nil
	}
	textLower := strings.ToLower(text)

	// Slice windows out of the original text when lowercasing preserved
	// byte offsets; otherwise fall back to the lowered text.
	source := text
	if len(text) != len(textLower) {
		source = textLower
	}

	var hints []string
	for _, hp := range hintPatterns {
		loc := hp.re.FindStringIndex(textLower)
		if loc == nil {
			continue
		}
		start := loc[0] - hintContextBefore
		if start < 0 {
			start = 0
		}
		end := loc[1] + hintContextAfter
		if end > len(source) {
			end = len(source)
		}
		// Window edges land on byte offsets; back off to rune boundaries
		// so the hint stays valid UTF-8.
		for start > 0 && !utf8.RuneStart(source[start]) {
			start--
		}
		for end < len(source) && !utf8.RuneStart(source[end]) {
			end++
		}
		context := strings.TrimSpace(source[start:end])
		hints = append(hints, hp.label+": ..."+context+"...")
	}
	return hints
}

// DedupeHints removes exact duplicates, preserving first-seen order, and
// truncates to limit. Hints are advisory; excess volume dilutes the
// assembled context.
func DedupeHints(hints []string, limit int) []string {
	seen := make(map[string]bool, len(hints))
	var out []string
	for _, h := range hints {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
