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

// Package ai provides abstractions for AI services used by careerfit.
//
// This package defines interfaces for text embeddings and free-text
// generation, plus the helpers that turn untrusted generated text into typed
// structures. Business logic depends on these abstractions rather than on a
// concrete provider.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces text from a prompt
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, ...) return
// interface types. Mock constructors return concrete types so tests can
// inject behavior and assert on call counts.
//
// # Parsing Generated Output
//
// ParseJSON strips markdown fences, repairs unquoted keys and decodes into
// the requested type. Any failure is reported as core.ErrGenerationParse so
// callers can substitute their own fallback value:
//
//	intents, err := ai.ParseJSON[core.StudentIntents](text)
//	if err != nil {
//	    intents = fallbackIntents()
//	}
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	text, err := provider.Generator().Generate(ctx, "Summarize ...")
package ai
