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

import "errors"

// Indexing and retrieval errors
var (
	// ErrExtraction indicates a source document could not be read or decoded.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding collaborator failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexWrite indicates chunks could not be persisted.
	ErrIndexWrite = errors.New("index write failed")

	// ErrSearch indicates similarity search could not read the index.
	ErrSearch = errors.New("search failed")

	// ErrInvalidChunkConfig indicates overlap >= size or a non-positive size.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrInvalidTopK indicates a non-positive result limit.
	ErrInvalidTopK = errors.New("topK must be greater than 0")
)

// Pipeline and persistence errors
var (
	// ErrGenerationParse indicates generated text could not be parsed into
	// the expected structure.
	ErrGenerationParse = errors.New("generation output could not be parsed")

	// ErrPersistence indicates a result could not be saved or read.
	ErrPersistence = errors.New("persistence failed")

	// ErrNotFound indicates an analysis id is malformed or unknown.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidRequest indicates a submitted job is missing required fields.
	ErrInvalidRequest = errors.New("invalid analysis request")

	// ErrInvalidRecord indicates an AnalysisRecord failed validation.
	ErrInvalidRecord = errors.New("invalid analysis record")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrScoreOutOfRange indicates a score outside [0,100].
	ErrScoreOutOfRange = errors.New("score out of range")
)
