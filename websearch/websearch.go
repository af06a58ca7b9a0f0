// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package websearch looks up public pages about a company.
package websearch

import (
	"context"
	"errors"
	"strings"
)

// ErrSearchFailed wraps transport and provider failures.
var ErrSearchFailed = errors.New("web search failed")

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Searcher runs a web query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Noop returns no results. It is used when no provider is configured.
type Noop struct{}

func (Noop) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return nil, ctx.Err()
}

// Provider names accepted by New.
const (
	ProviderTavily     = "tavily"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderNone       = "none"
)

// Config selects and configures a provider.
type Config struct {
	Provider          string
	Endpoint          string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
}

// New builds the configured Searcher. Tavily without an API key falls back
// to Noop.
func New(cfg Config) (Searcher, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderTavily:
		if cfg.APIKey == "" {
			return Noop{}, nil
		}
		opts := []TavilyOption{WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)}
		if cfg.Endpoint != "" {
			opts = append(opts, WithEndpoint(cfg.Endpoint))
		}
		return NewTavily(cfg.APIKey, opts...), nil
	case ProviderDuckDuckGo:
		return NewDuckDuckGo(cfg.RequestsPerSecond, cfg.Burst)
	case ProviderNone:
		return Noop{}, nil
	default:
		return nil, errors.New("unknown web search provider: " + cfg.Provider)
	}
}
