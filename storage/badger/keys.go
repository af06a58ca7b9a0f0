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

package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/careerfit/core"
)

const (
	documentEntryPrefix = "docent"
	documentChunkPrefix = "docchk"
	analysisPrefix      = "anarec"
	analysisDatePrefix  = "anadat"
)

// makeEntryKey generates the key of a document entry.
// Format: prefix:hash
func makeEntryKey(hash core.ContentHash) []byte {
	return []byte(documentEntryPrefix + ":" + string(hash))
}

// makePartialChunkKey generates the prefix shared by all chunks of a document.
// Format: prefix:hash:
func makePartialChunkKey(hash core.ContentHash) []byte {
	return []byte(documentChunkPrefix + ":" + string(hash) + ":")
}

// makeChunkKey generates a chunk key.
// Format: prefix:hash:ordinal
func makeChunkKey(hash core.ContentHash, ordinal int) []byte {
	prefix := makePartialChunkKey(hash)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	// BigEndian so chunks iterate in ordinal order
	binary.BigEndian.PutUint32(buf[offset:], uint32(ordinal))
	return buf
}

// makeAnalysisKey generates the key of an analysis record.
func makeAnalysisKey(id string) []byte {
	return []byte(analysisPrefix + ":" + id)
}

// makeAnalysisDateKey generates the creation-time index key of an analysis.
// Format: prefix:timestamp:id
func makeAnalysisDateKey(createdAt time.Time, id string) []byte {
	prefix := []byte(analysisDatePrefix + ":")
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// hasPrefix checks if a byte slice has a given prefix
func hasPrefix(s, prefix []byte) bool {
	return len(s) >= len(prefix) && string(s[:len(prefix)]) == string(prefix)
}
