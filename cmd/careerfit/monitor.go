package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/search"
)

// explainMonitor narrates a search to w.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

// orNil keeps a nil *explainMonitor from becoming a non-nil interface.
func (m *explainMonitor) orNil() search.SearchMonitor {
	if m == nil {
		return nil
	}
	return m
}

func (m *explainMonitor) Start(query string, hash core.ContentHash) {
	fmt.Fprintf(m.w, "query %q against %s\n", query, hash)
}

func (m *explainMonitor) AfterQueryEmbedding(truncated bool, dimensions int) {
	if truncated {
		fmt.Fprintln(m.w, "query truncated before embedding")
	}
	fmt.Fprintf(m.w, "query embedded (%d dimensions)\n", dimensions)
}

func (m *explainMonitor) AfterChunkRetrieval(count int) {
	fmt.Fprintf(m.w, "%d chunks to score\n", count)
}

func (m *explainMonitor) Hit(result core.SearchResult, matchedTerms []string) {
	fmt.Fprintf(m.w, "  chunk %d scored %0.3f", result.Ordinal, result.Score)
	if len(matchedTerms) > 0 {
		fmt.Fprintf(m.w, " terms: %s", strings.Join(matchedTerms, ", "))
	}
	fmt.Fprintln(m.w)
}

func (m *explainMonitor) Finish(results []core.SearchResult) {
	fmt.Fprintf(m.w, "%d results\n", len(results))
}
