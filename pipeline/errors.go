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

package pipeline

import "errors"

var (
	// ErrMissingInput is returned by a stage whose required inputs are absent.
	// The orchestrator records the stage as skipped and writes neutral values.
	ErrMissingInput = errors.New("required input missing")

	// ErrNoStages is returned when an orchestrator is built without stages.
	ErrNoStages = errors.New("at least one stage is required")

	// ErrDuplicateOwner is returned when two stages own the same key.
	ErrDuplicateOwner = errors.New("key owned by more than one stage")

	// ErrStageTimeout is recorded when a stage exceeds its time budget.
	ErrStageTimeout = errors.New("stage timed out")

	// ErrStagePanic is recorded when a stage panics.
	ErrStagePanic = errors.New("stage panicked")

	// ErrGeneratorRequired is returned when a Caller has no generator.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrIndexRequired is returned when a document stage has no index.
	ErrIndexRequired = errors.New("document index is required")

	// ErrRetrieverRequired is returned when a document stage has no retriever.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
