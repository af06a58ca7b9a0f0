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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/careerfit/core"
)

// Stage outcome statuses.
const (
	OutcomeOK       = "ok"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "fallback"
)

// DefaultStageTimeout bounds a single stage, including all of its external
// calls and retries.
const DefaultStageTimeout = 3 * time.Minute

// Stage is one step of a run. Run reads the state and returns the keys the
// stage owns. Returning ErrMissingInput marks the stage skipped; any other
// error replaces the update with Fallback.
type Stage interface {
	Name() string
	Owns() []Key
	Run(ctx context.Context, state *State) (Update, error)
	Fallback() Update
}

// Orchestrator runs a fixed, ordered list of stages over a State.
type Orchestrator struct {
	stages       []Stage
	stageTimeout time.Duration
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithStageTimeout bounds each stage. Zero disables the bound.
func WithStageTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout < 0 {
			return fmt.Errorf("stage timeout must not be negative: %s", timeout)
		}
		o.stageTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "pipeline")
		return nil
	}
}

// NewOrchestrator validates the stage chain. Every key may have at most one
// owner.
func NewOrchestrator(stages []Stage, opts ...Option) (*Orchestrator, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	owners := make(map[Key]string)
	for i, st := range stages {
		if st == nil {
			return nil, fmt.Errorf("stage %d is nil", i)
		}
		for _, k := range st.Owns() {
			if prev, ok := owners[k]; ok {
				return nil, fmt.Errorf("%w: %s owned by %s and %s", ErrDuplicateOwner, k, prev, st.Name())
			}
			owners[k] = st.Name()
		}
	}

	o := &Orchestrator{
		stages:       slices.Clone(stages),
		stageTimeout: DefaultStageTimeout,
		logger:       slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Stages returns the stage names in run order.
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, st := range o.stages {
		names[i] = st.Name()
	}
	return names
}

// Run executes every stage in order and returns the terminal state. It never
// fails: a stage that errors, panics, or times out contributes its fallback.
func (o *Orchestrator) Run(ctx context.Context, state State) State {
	state.Outcomes = slices.Clone(state.Outcomes)
	for _, st := range o.stages {
		start := time.Now()
		update, err := o.runStage(ctx, st, &state)

		outcome := core.StageOutcome{Stage: st.Name(), Status: OutcomeOK}
		switch {
		case err == nil:
		case errors.Is(err, ErrMissingInput):
			outcome.Status = OutcomeSkipped
			outcome.Reason = err.Error()
			o.logger.Warn("stage skipped", "stage", st.Name(), "reason", err)
			update = neutral(st.Owns())
		default:
			outcome.Status = OutcomeFallback
			outcome.Reason = err.Error()
			o.logger.Warn("stage fell back", "stage", st.Name(), "error", err)
			update = st.Fallback()
		}

		o.merge(&state, st, update)
		outcome.Duration = time.Since(start)
		state.Outcomes = append(state.Outcomes, outcome)
		o.logger.Debug("stage finished", "stage", st.Name(), "status", outcome.Status, "duration", outcome.Duration)
	}
	return state
}

type stageResult struct {
	update Update
	err    error
}

func (o *Orchestrator) runStage(ctx context.Context, st Stage, state *State) (Update, error) {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}

	// The stage sees a copy so a stage left running after a timeout cannot
	// race with later merges.
	snapshot := *state
	snapshot.Outcomes = slices.Clone(state.Outcomes)

	done := make(chan stageResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageResult{err: fmt.Errorf("%w: %v", ErrStagePanic, r)}
			}
		}()
		u, err := st.Run(ctx, &snapshot)
		done <- stageResult{update: u, err: err}
	}()

	select {
	case res := <-done:
		return res.update, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Update{}, fmt.Errorf("%w after %s", ErrStageTimeout, o.stageTimeout)
		}
		return Update{}, ctx.Err()
	}
}

// merge writes the keys st owns and has not yet been written. Keys outside
// ownership or already present are dropped. Owned keys the update left unset
// come from the stage fallback.
func (o *Orchestrator) merge(state *State, st Stage, update Update) {
	owns := st.Owns()
	for _, k := range update.Keys() {
		if !slices.Contains(owns, k) {
			o.logger.Warn("dropping key not owned by stage", "stage", st.Name(), "key", k)
			continue
		}
		if state.Has(k) {
			o.logger.Warn("dropping write to existing key", "stage", st.Name(), "key", k)
			continue
		}
		state.set(k, update)
	}

	var fallback *Update
	for _, k := range owns {
		if state.Has(k) {
			continue
		}
		if fallback == nil {
			f := st.Fallback()
			fallback = &f
		}
		o.logger.Warn("stage left owned key unset, using fallback", "stage", st.Name(), "key", k)
		if fallback.has(k) {
			state.set(k, *fallback)
		} else {
			state.set(k, neutral([]Key{k}))
		}
	}
}
