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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/careerfit/core"
)

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalDocumentEntry serializes a DocumentEntry to bytes.
func MarshalDocumentEntry(entry *core.DocumentEntry) []byte {
	buf := make([]byte, core.DocumentEntryMUS.Size(*entry))
	core.DocumentEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalDocumentEntry deserializes a DocumentEntry from bytes.
func UnmarshalDocumentEntry(data []byte) (*core.DocumentEntry, error) {
	entry, _, err := core.DocumentEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: entry: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalAnalysis serializes an AnalysisRecord as JSON.
func MarshalAnalysis(record *core.AnalysisRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: analysis: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalAnalysis deserializes an AnalysisRecord from JSON.
func UnmarshalAnalysis(data []byte) (*core.AnalysisRecord, error) {
	var record core.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: analysis: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
