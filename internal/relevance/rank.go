package relevance

import (
	"errors"
	"sort"

	"github.com/dgallion1/modmap/internal/document"
)

// ErrEmptyDocument signals a document with no pages. Returning an empty
// ranking instead would masquerade as "a full analysis found nothing".
var ErrEmptyDocument = errors.New("document contains no pages")

// Ranking is the full relevance analysis of a document: one chunk per page
// ordered by descending score, plus raw (undeduplicated) hints in page
// order.
type Ranking struct {
	Chunks []document.Chunk
	Hints  []string
}

// Rank analyzes every page and returns chunks sorted by relevance score
// descending, ties broken by ascending page number. No page is dropped:
// ranking decides how relevant, assembly decides how much fits.
//
// workers bounds concurrent page analysis; values below 2 run
// sequentially. Page analysis is pure, so the only cross-page state is the
// hint list, which is merged in page order to keep output independent of
// scheduling.
func Rank(doc document.Document, workers int) (Ranking, error) {
	if len(doc.Pages) == 0 {
		return Ranking{}, ErrEmptyDocument
	}

	chunks := make([]document.Chunk, len(doc.Pages))
	pageHints := make([][]string, len(doc.Pages))

	analyze := func(i int) {
		page := doc.Pages[i]
		a := AnalyzePage(page.Text, page.Tables)
		chunks[i] = document.Chunk{
			Text:           a.Text,
			PageNumber:     page.Number,
			RelevanceScore: a.Score,
			ContainsTable:  len(page.Tables) > 0,
			SectionTitle:   a.SectionTitle,
			Tables:         page.Tables,
		}
		pageHints[i] = CollectHints(page.Text)
	}

	if workers > 1 {
		sem := make(chan struct{}, workers)
		done := make(chan int, len(doc.Pages))
		for i := range doc.Pages {
			sem <- struct{}{}
			go func(i int) {
				defer func() { <-sem }()
				analyze(i)
				done <- i
			}(i)
		}
		for range doc.Pages {
			<-done
		}
	} else {
		for i := range doc.Pages {
			analyze(i)
		}
	}

	var hints []string
	for _, hs := range pageHints {
		hints = append(hints, hs...)
	}

	// Stable sort with an explicit page-number tie-break: equal scores
	// must order identically on every run.
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].RelevanceScore != chunks[j].RelevanceScore {
			return chunks[i].RelevanceScore > chunks[j].RelevanceScore
		}
		return chunks[i].PageNumber < chunks[j].PageNumber
	})

	return Ranking{Chunks: chunks, Hints: hints}, nil
}
