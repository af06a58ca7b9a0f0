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

package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash identifies a document by the BLAKE2b-256 digest of its
// normalized text, hex encoded.
type ContentHash string

// NormalizeContent trims the text and collapses every whitespace run to a
// single space. Identical documents that differ only in line wrapping or
// indentation normalize to the same string.
func NormalizeContent(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HashContent returns the content hash of text. The hash is computed over
// NormalizeContent(text) and does not depend on where the text came from.
func HashContent(text string) ContentHash {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(NormalizeContent(text)))
	return ContentHash(hex.EncodeToString(h.Sum(nil)))
}

// SourceType tags where a document came from.
type SourceType string

const (
	SourceResume   SourceType = "resume"
	SourceLinkedIn SourceType = "linkedin"
	SourceCompany  SourceType = "company"
	SourceWeb      SourceType = "web"
)

// Chunk is one word window of an indexed document together with its
// embedding. Chunks are written once and never mutated.
type Chunk struct {
	Hash      ContentHash
	Ordinal   int
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// DocumentEntry describes the chunk set stored for one content hash.
type DocumentEntry struct {
	Hash       ContentHash
	DocType    SourceType
	ChunkCount int
	CreatedAt  time.Time
}

// SearchResult is a chunk ranked against a query.
type SearchResult struct {
	Hash    ContentHash
	Ordinal int
	Text    string
	Score   float32
}
