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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/extract"
	"github.com/poiesic/careerfit/scoring"
)

const (
	intentTopK     = 2
	cultureTopK    = 2
	skillTopK      = 3
	contextLimit   = 2000
	skillsLimit    = 1500
	webQueryPrefix = "company culture values work life balance "
)

var (
	intentQueries = []string{
		"career goals aspirations industry preferences",
		"work environment culture preferences remote office",
		"learning development training mentorship goals",
		"company size startup corporate preferences",
	}
	cultureQueries = []string{
		"company values mission vision culture",
		"work life balance flexible working",
		"learning development training programs",
		"team collaboration communication style",
	}
	skillQueries = []string{
		"technical skills programming languages frameworks",
		"software development experience projects",
		"tools technologies platforms used",
	}
)

// Indexer stores a document and returns its content hash.
type Indexer interface {
	Index(ctx context.Context, content string, sourceType core.SourceType) (core.ContentHash, error)
	IndexFile(ctx context.Context, path string, sourceType core.SourceType) (core.ContentHash, error)
}

// Retriever returns the chunks of one document most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, hash core.ContentHash, topK int) ([]core.SearchResult, error)
}

// Dependencies are the collaborators shared by the default stages.
type Dependencies struct {
	Index     Indexer
	Retriever Retriever
	Caller    *Caller

	// Reader loads the optional secondary profile. Defaults to extract.New().
	Reader extract.Reader

	// MaxURLs caps how many company URLs are web-searched. Default 3.
	MaxURLs int

	// WebResults is the result count requested per URL. Default 3.
	WebResults int

	// Now stamps score metadata. Default time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

func (d *Dependencies) validate() error {
	if d.Index == nil {
		return ErrIndexRequired
	}
	if d.Retriever == nil {
		return ErrRetrieverRequired
	}
	if d.Caller == nil {
		return ErrGeneratorRequired
	}
	if d.Reader == nil {
		d.Reader = extract.New()
	}
	if d.MaxURLs <= 0 {
		d.MaxURLs = 3
	}
	if d.WebResults <= 0 {
		d.WebResults = 3
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return nil
}

// DefaultStages returns the intent, culture, skill, score, and report stages
// in run order.
func DefaultStages(deps Dependencies) ([]Stage, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	d := &deps
	return []Stage{
		&IntentStage{deps: d},
		&CultureStage{deps: d},
		&SkillStage{deps: d},
		&ScoreStage{now: d.Now},
		&ReportStage{deps: d},
	}, nil
}

func (d *Dependencies) logger(stage string) *slog.Logger {
	return d.Logger.With("component", "pipeline", "stage", stage)
}

func (d *Dependencies) indexDocument(ctx context.Context, doc Document, sourceType core.SourceType) (core.ContentHash, error) {
	if strings.TrimSpace(doc.Text) != "" {
		return d.Index.Index(ctx, doc.Text, sourceType)
	}
	return d.Index.IndexFile(ctx, doc.Path, sourceType)
}

// gather runs each query against hash and joins the retrieved text. A failed
// search contributes nothing.
func (d *Dependencies) gather(ctx context.Context, logger *slog.Logger, hash core.ContentHash, queries []string, topK int) string {
	var sb strings.Builder
	for _, q := range queries {
		results, err := d.Retriever.Search(ctx, q, hash, topK)
		if err != nil {
			logger.Warn("search failed, continuing without chunks", "query", q, "error", err)
		}
		for i, r := range results {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.Text)
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}

// readOptional returns the text of an optional document, or "" if it cannot
// be read.
func (d *Dependencies) readOptional(logger *slog.Logger, doc Document) string {
	if strings.TrimSpace(doc.Text) != "" {
		return doc.Text
	}
	if strings.TrimSpace(doc.Path) == "" {
		return ""
	}
	text, err := d.Reader.ReadText(doc.Path)
	if err != nil {
		logger.Warn("optional document unreadable", "path", doc.Path, "error", err)
		return ""
	}
	return text
}

// IntentStage extracts the candidate's intents from the resume, the optional
// secondary profile, and the stated goals.
type IntentStage struct {
	deps *Dependencies
}

func (s *IntentStage) Name() string { return "intent" }

func (s *IntentStage) Owns() []Key { return []Key{KeyStudentIntents} }

func (s *IntentStage) Fallback() Update { return Update{StudentIntents: FallbackIntents()} }

func (s *IntentStage) Run(ctx context.Context, state *State) (Update, error) {
	in := state.Input
	if in.Resume.IsZero() || strings.TrimSpace(in.CareerGoals) == "" {
		return Update{}, fmt.Errorf("%w: resume and career goals", ErrMissingInput)
	}
	logger := s.deps.logger(s.Name())

	hash, err := s.deps.indexDocument(ctx, in.Resume, core.SourceResume)
	if err != nil {
		return Update{}, err
	}

	evidence := s.deps.gather(ctx, logger, hash, intentQueries, intentTopK)
	evidence += s.deps.readOptional(logger, in.LinkedIn) + " " + in.CareerGoals

	text, err := s.deps.Caller.Generate(ctx, intentPrompt(truncate(evidence, contextLimit)))
	if err != nil {
		return Update{}, err
	}
	intents, err := ai.ParseJSON[core.StudentIntents](text)
	if err != nil {
		return Update{}, err
	}
	logger.Info("extracted intents", "industries", len(intents.DesiredIndustries))
	return Update{StudentIntents: &intents}, nil
}

// CultureStage extracts company culture from the company document, web
// results for the company URLs, and the job descriptions.
type CultureStage struct {
	deps *Dependencies
}

func (s *CultureStage) Name() string { return "culture" }

func (s *CultureStage) Owns() []Key { return []Key{KeyCompanyCulture} }

func (s *CultureStage) Fallback() Update { return Update{CompanyCulture: FallbackCulture()} }

func (s *CultureStage) Run(ctx context.Context, state *State) (Update, error) {
	in := state.Input
	if in.Company.IsZero() {
		return Update{}, fmt.Errorf("%w: company document", ErrMissingInput)
	}
	logger := s.deps.logger(s.Name())

	hash, err := s.deps.indexDocument(ctx, in.Company, core.SourceCompany)
	if err != nil {
		return Update{}, err
	}

	web := s.webContext(ctx, logger, in.CompanyURLs)
	evidence := s.deps.gather(ctx, logger, hash, cultureQueries, cultureTopK)
	evidence += web + " " + in.JobDescriptions

	text, err := s.deps.Caller.Generate(ctx, culturePrompt(truncate(evidence, contextLimit)))
	if err != nil {
		return Update{}, err
	}
	culture, err := ai.ParseJSON[core.CompanyCulture](text)
	if err != nil {
		return Update{}, err
	}
	logger.Info("extracted culture", "values", len(culture.Values))
	return Update{CompanyCulture: &culture}, nil
}

// webContext concatenates web result content for the first MaxURLs non-blank
// URLs. A failed search for one URL is skipped.
func (s *CultureStage) webContext(ctx context.Context, logger *slog.Logger, urls []string) string {
	var sb strings.Builder
	searched := 0
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if searched == s.deps.MaxURLs {
			break
		}
		searched++

		results, err := s.deps.Caller.WebSearch(ctx, webQueryPrefix+u, s.deps.WebResults)
		if err != nil {
			logger.Warn("web search failed", "url", u, "error", err)
			continue
		}
		for _, r := range results {
			sb.WriteString(r.Content)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// SkillStage compares resume skills with the skills the job descriptions ask
// for.
type SkillStage struct {
	deps *Dependencies
}

func (s *SkillStage) Name() string { return "skill" }

func (s *SkillStage) Owns() []Key { return []Key{KeySkillAlignment} }

func (s *SkillStage) Fallback() Update { return Update{SkillAlignment: FallbackSkills()} }

func (s *SkillStage) Run(ctx context.Context, state *State) (Update, error) {
	in := state.Input
	if in.Resume.IsZero() || strings.TrimSpace(in.JobDescriptions) == "" {
		return Update{}, fmt.Errorf("%w: resume and job descriptions", ErrMissingInput)
	}
	logger := s.deps.logger(s.Name())

	hash, err := s.deps.indexDocument(ctx, in.Resume, core.SourceResume)
	if err != nil {
		return Update{}, err
	}
	resumeContext := s.deps.gather(ctx, logger, hash, skillQueries, skillTopK)
	jobs := truncate(in.JobDescriptions, skillsLimit)

	text, err := s.deps.Caller.Generate(ctx, jobSkillsPrompt(jobs))
	if err != nil {
		return Update{}, err
	}
	required, err := ai.ParseJSON[[]string](text)
	if err != nil {
		required = ai.ExtractQuotedStrings(ai.CleanResponse(text))
		logger.Debug("job skills were not a JSON array, using quoted strings", "count", len(required))
	}

	text, err = s.deps.Caller.Generate(ctx, alignmentPrompt(truncate(resumeContext, skillsLimit), jobs, required))
	if err != nil {
		return Update{}, err
	}
	alignment, err := ai.ParseJSON[core.SkillAlignment](text)
	if err != nil {
		return Update{}, err
	}
	logger.Info("aligned skills", "matched", len(alignment.MatchedSkills), "gaps", len(alignment.SkillGaps))
	return Update{SkillAlignment: &alignment}, nil
}

// ScoreStage aggregates the three analyses into a compatibility score.
type ScoreStage struct {
	now func() time.Time
}

func (s *ScoreStage) Name() string { return "score" }

func (s *ScoreStage) Owns() []Key { return []Key{KeyCompatibilityScore} }

func (s *ScoreStage) Fallback() Update {
	return Update{CompatibilityScore: FallbackScore(s.clock())}
}

func (s *ScoreStage) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *ScoreStage) Run(ctx context.Context, state *State) (Update, error) {
	if state.StudentIntents.IsEmpty() || state.CompanyCulture.IsEmpty() || state.SkillAlignment.IsEmpty() {
		return Update{}, fmt.Errorf("%w: intents, culture, and skill alignment", ErrMissingInput)
	}
	score := scoring.Aggregate(state.StudentIntents, state.CompanyCulture, state.SkillAlignment, s.clock())
	return Update{CompatibilityScore: &score}, nil
}

// ReportStage writes the counseling report for a scored run.
type ReportStage struct {
	deps *Dependencies
}

func (s *ReportStage) Name() string { return "report" }

func (s *ReportStage) Owns() []Key { return []Key{KeyCounselingReport} }

func (s *ReportStage) Fallback() Update { return Update{CounselingReport: FallbackReport()} }

func (s *ReportStage) Run(ctx context.Context, state *State) (Update, error) {
	if state.CompatibilityScore.IsEmpty() {
		return Update{}, fmt.Errorf("%w: compatibility score", ErrMissingInput)
	}

	prompt := reportPrompt(state.CompatibilityScore.Overall, state.StudentIntents, state.CompanyCulture, state.SkillAlignment)
	text, err := s.deps.Caller.Generate(ctx, prompt)
	if err != nil {
		return Update{}, err
	}
	report, err := ai.ParseJSON[core.CounselingReport](text)
	if err != nil {
		return Update{}, err
	}
	return Update{CounselingReport: &report}, nil
}
