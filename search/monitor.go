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

package search

import "github.com/poiesic/careerfit/core"

// SearchMonitor observes a search. Implementations must not retain the
// slices they are given.
type SearchMonitor interface {
	Start(query string, hash core.ContentHash)
	AfterQueryEmbedding(truncated bool, dimensions int)
	AfterChunkRetrieval(count int)
	Hit(result core.SearchResult, matchedTerms []string)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ core.ContentHash)  {}
func (n *noopMonitor) AfterQueryEmbedding(_ bool, _ int)   {}
func (n *noopMonitor) AfterChunkRetrieval(_ int)           {}
func (n *noopMonitor) Hit(_ core.SearchResult, _ []string) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)        {}
