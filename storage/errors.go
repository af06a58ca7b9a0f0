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

import "errors"

var (
	// ErrNotFound is returned when no entry or analysis exists for a key.
	ErrNotFound = errors.New("record not found")

	// ErrTransactionFailed wraps a failed read or write transaction.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed is returned by repositories used after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps a chunk, entry or analysis that could not
	// be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrDuplicateKey is returned when an analysis id is saved twice.
	ErrDuplicateKey = errors.New("duplicate key")
)
