package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
	"golang.org/x/time/rate"
)

const duckDuckGoUserAgent = "careerfit/1.0"

// DuckDuckGo searches through langchaingo's DuckDuckGo tool. The tool
// returns one formatted text block, which is split back into results.
type DuckDuckGo struct {
	limiter *rate.Limiter
	newTool func(maxResults int) (*duckduckgo.Tool, error)
}

// NewDuckDuckGo creates a keyless searcher.
func NewDuckDuckGo(requestsPerSecond float64, burst int) (*DuckDuckGo, error) {
	return &DuckDuckGo{
		limiter: newLimiter(requestsPerSecond, burst),
		newTool: func(maxResults int) (*duckduckgo.Tool, error) {
			return duckduckgo.New(maxResults, duckDuckGoUserAgent)
		},
	}, nil
}

// Search runs query and parses the tool output.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tool, err := d.newTool(maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	out, err := tool.Call(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	// The tool reports an empty search as prose rather than an error.
	if strings.HasPrefix(out, "No good") {
		return nil, nil
	}
	results := parseToolOutput(out)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// parseToolOutput splits "Title: ...\nDescription: ...\nURL: ..." blocks.
// Text that does not follow the layout becomes a single untitled result.
func parseToolOutput(out string) []Result {
	var (
		results []Result
		current Result
		seen    bool
	)
	flush := func() {
		if seen {
			results = append(results, current)
		}
		current, seen = Result{}, false
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			flush()
			current.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			seen = true
		case strings.HasPrefix(line, "Description:"):
			current.Content = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			seen = true
		case strings.HasPrefix(line, "URL:"):
			current.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
			seen = true
		}
	}
	flush()

	if len(results) == 0 && strings.TrimSpace(out) != "" {
		return []Result{{Content: strings.TrimSpace(out)}}
	}
	return results
}
