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

package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/storage"
)

// idLength is the length of a canonical hyphenated UUID.
const idLength = 36

// Store issues analysis ids and persists completed records.
type Store struct {
	repo   storage.AnalysisRepository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithClock sets the source of created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "result-store")
		return nil
	}
}

// NewStore creates a Store backed by repo.
func NewStore(repo storage.AnalysisRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	s := &Store{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default().With("component", "result-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ValidID reports whether id has the shape of an issued analysis id.
func ValidID(id string) bool {
	if len(id) != idLength {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Save assigns a fresh id, the creation time, and the completed status to a
// copy of record and persists it. The caller's record is not modified.
// Storage failures wrap core.ErrPersistence.
func (s *Store) Save(ctx context.Context, record *core.AnalysisRecord) (string, error) {
	if err := core.ValidateAnalysisRecord(record); err != nil {
		return "", err
	}

	saved := *record
	saved.ID = uuid.NewString()
	saved.CreatedAt = s.now().UTC()
	saved.Status = core.StatusCompleted
	if strings.TrimSpace(saved.Summary) == "" {
		saved.Summary = SummaryText(&saved)
	}

	if err := s.repo.SaveAnalysis(ctx, &saved); err != nil {
		s.logger.Error("failed to save analysis", "id", saved.ID, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.logger.Info("analysis saved", "id", saved.ID, "overall", saved.CompatibilityScore.Overall)
	return saved.ID, nil
}

// Get returns the record for id. Malformed and unknown ids return
// core.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: malformed id %q", core.ErrNotFound, id)
	}
	record, err := s.repo.GetAnalysis(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return record, nil
}

// Summary returns the short view of the record for id.
func (s *Store) Summary(ctx context.Context, id string) (*core.AnalysisSummary, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Summarize(), nil
}

// List returns summaries of up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*core.AnalysisSummary, error) {
	records, err := s.repo.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	out := make([]*core.AnalysisSummary, len(records))
	for i, r := range records {
		out[i] = r.Summarize()
	}
	return out, nil
}

// SummaryText renders the human-readable summary stored with a record.
func SummaryText(r *core.AnalysisRecord) string {
	score := r.CompatibilityScore
	var sb strings.Builder
	sb.WriteString("Compatibility Analysis Complete!\n\n")
	fmt.Fprintf(&sb, "Overall Score: %d%%\n", score.Overall)
	fmt.Fprintf(&sb, "- Intent Alignment: %d%%\n", score.IntentAlignment)
	fmt.Fprintf(&sb, "- Skill Match: %d%%\n", score.SkillMatch)
	fmt.Fprintf(&sb, "- Cultural Fit: %d%%\n\n", score.CulturalFit)
	sb.WriteString("Key Insights:\n")
	fmt.Fprintf(&sb, "- Matched Skills: %d\n", len(r.SkillAlignment.MatchedSkills))
	fmt.Fprintf(&sb, "- Skill Gaps: %d\n", len(r.SkillAlignment.SkillGaps))
	fmt.Fprintf(&sb, "- Hidden Opportunities: %d\n\n", len(r.SkillAlignment.HiddenOpportunities))
	fmt.Fprintf(&sb, "Recommendation: %s", r.CounselingReport.MatchReasoning)
	return sb.String()
}
