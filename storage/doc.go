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

// Package storage defines the persistence abstraction for indexed documents
// and analysis records.
//
// Public constructors in backend packages return these interfaces rather than
// concrete types:
//
//	chunks, analyses, err := badger.NewRepositories(path)
//
// # Architecture
//
//   - ChunkRepository: content-addressed chunk sets, written at most once per hash
//   - AnalysisRepository: immutable analysis records keyed by id
//
// Chunks and entries are encoded with MUS; analysis records are stored as
// JSON so the HTTP layer and the SQLite backend share one layout.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
