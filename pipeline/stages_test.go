package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/careerfit/ai"
	"github.com/poiesic/careerfit/ai/mock"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/index"
	"github.com/poiesic/careerfit/search"
	"github.com/poiesic/careerfit/storage/badger"
	"github.com/poiesic/careerfit/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	resumeText = `Jordan Lee. Backend engineer with four years of Go and SQL experience.
Built payment services with Docker and PostgreSQL. Interested in fintech and
mentorship, prefers remote work and collaborative teams.`

	companyText = `Acme Pay builds payment infrastructure. Our values are technology,
collaboration, and leadership. We offer flexible remote work and a mentorship
program for every new engineer.`

	jobText = "Senior Go engineer. Requires Go, SQL, Docker, and Kubernetes."
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

var happyResponses = map[string]string{
	"extract student intents": "```json\n" + `{"desired_industries":["Technology"],"preferred_culture":["collaborative"],"work_preferences":["remote"],"learning_goals":["mentorship"],"career_aspirations":["leadership"]}` + "\n```",
	"extract cultural traits": `{"values":["Technology","Collaborative","Leadership"],"work_life_balance":"Flexible remote work","learning_support":["Mentorship program"],"team_culture":"Open","company_size":"Large"}`,
	"Extract technical skills": `["Go","SQL","Docker","Kubernetes"]`,
	"Analyze skill alignment":  `{"matched_skills":["Go","SQL","Docker"],"skill_gaps":["Kubernetes"],"hidden_opportunities":["Platform work"],"transferable_skills":["Mentoring"]}`,
	"counseling report":        `{"match_reasoning":"Strong alignment","alternative_suggestions":[],"actionable_advice":["Learn Kubernetes"],"skill_development_plan":["CKA"]}`,
}

type fakeWeb struct {
	mu      sync.Mutex
	queries []string
	results []websearch.Result
	err     error
}

func (f *fakeWeb) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeWeb) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type harness struct {
	orchestrator *Orchestrator
	generator    *mock.MockGenerator
	web          *fakeWeb
	index        *index.DocumentIndex
}

func newHarness(t *testing.T, gen *mock.MockGenerator, web *fakeWeb) *harness {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	ix, err := index.New(repo, embedder, index.WithChunking(50, 10))
	require.NoError(t, err)
	t.Cleanup(ix.Release)

	searcher, err := search.NewSearcher(repo, embedder)
	require.NoError(t, err)

	caller, err := NewCaller(gen,
		WithWebSearch(web),
		WithBackoff(Backoff{MaxAttempts: 1}),
		WithCallTimeout(time.Second))
	require.NoError(t, err)

	stages, err := DefaultStages(Dependencies{
		Index:     ix,
		Retriever: searcher,
		Caller:    caller,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	o, err := NewOrchestrator(stages, WithStageTimeout(5*time.Second))
	require.NoError(t, err)

	return &harness{orchestrator: o, generator: gen, web: web, index: ix}
}

func fullInput() Input {
	return Input{
		Resume:          Document{Text: resumeText},
		CareerGoals:     "Grow into a tech lead role at a fintech company",
		Company:         Document{Text: companyText},
		JobDescriptions: jobText,
		CompanyURLs:     []string{"https://acme.example", " ", "https://acme.example/careers", "https://acme.example/blog", "https://acme.example/extra"},
	}
}

func statuses(s State) map[string]string {
	out := make(map[string]string, len(s.Outcomes))
	for _, o := range s.Outcomes {
		out[o.Stage] = o.Status
	}
	return out
}

func TestDefaultStages_RequiresCollaborators(t *testing.T) {
	caller, err := NewCaller(mock.NewMockGenerator())
	require.NoError(t, err)

	_, err = DefaultStages(Dependencies{Caller: caller})
	assert.ErrorIs(t, err, ErrIndexRequired)
}

func TestPipeline_HappyPath(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Responses = happyResponses
	web := &fakeWeb{results: []websearch.Result{{Title: "Acme", Content: "Engineers praise the flexible schedule"}}}
	h := newHarness(t, gen, web)

	final := h.orchestrator.Run(context.Background(), NewState(fullInput()))

	for stage, status := range statuses(final) {
		assert.Equal(t, OutcomeOK, status, stage)
	}
	assert.Len(t, final.Outcomes, 5)

	score := final.CompatibilityScore
	require.NotNil(t, score)
	assert.Equal(t, 100, score.IntentAlignment)
	assert.Equal(t, 75, score.SkillMatch)
	assert.Equal(t, 100, score.CulturalFit)
	assert.Equal(t, 92, score.Overall)
	assert.Equal(t, core.ConfidenceHigh, score.Metadata.Confidence)
	assert.Equal(t, fixedNow, score.Metadata.Timestamp)

	assert.Equal(t, "Strong alignment", final.CounselingReport.MatchReasoning)
	assert.Equal(t, []string{"Technology"}, final.StudentIntents.DesiredIndustries)

	t.Run("web search covers the first three non-blank urls", func(t *testing.T) {
		queries := web.Queries()
		require.Len(t, queries, 3)
		assert.Equal(t, webQueryPrefix+"https://acme.example", queries[0])
		assert.Equal(t, webQueryPrefix+"https://acme.example/blog", queries[2])
	})

	t.Run("prompts carry retrieved and stated context", func(t *testing.T) {
		prompts := gen.Prompts()
		require.Len(t, prompts, 5)
		assert.Contains(t, prompts[0], "Grow into a tech lead role")
		assert.Contains(t, prompts[0], "Backend engineer")
		assert.Contains(t, prompts[1], "flexible schedule")
		assert.Contains(t, prompts[1], "Senior Go engineer")
		assert.Contains(t, prompts[3], `["Go","SQL","Docker","Kubernetes"]`)
	})

	t.Run("resume is indexed once", func(t *testing.T) {
		entries, err := h.index.Entries(context.Background())
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestPipeline_GenerationFailure(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("model overloaded")
	}
	h := newHarness(t, gen, &fakeWeb{})

	final := h.orchestrator.Run(context.Background(), NewState(fullInput()))

	s := statuses(final)
	assert.Equal(t, OutcomeFallback, s["intent"])
	assert.Equal(t, OutcomeFallback, s["culture"])
	assert.Equal(t, OutcomeFallback, s["skill"])
	assert.Equal(t, OutcomeOK, s["score"])
	assert.Equal(t, OutcomeFallback, s["report"])

	assert.Equal(t, FallbackIntents(), final.StudentIntents)
	assert.Equal(t, FallbackReport(), final.CounselingReport)

	// Fallback intents and culture share nothing; skills are one match, one gap.
	assert.Equal(t, 0, final.CompatibilityScore.IntentAlignment)
	assert.Equal(t, 50, final.CompatibilityScore.SkillMatch)
	assert.Equal(t, 0, final.CompatibilityScore.CulturalFit)
	assert.Equal(t, 17, final.CompatibilityScore.Overall)
	assert.Equal(t, core.ConfidenceLow, final.CompatibilityScore.Metadata.Confidence)

	require.NoError(t, core.ValidateAnalysisRecord(final.Record()))
}

func TestPipeline_MalformedOutput(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Responses = map[string]string{}
	for k, v := range happyResponses {
		gen.Responses[k] = v
	}
	gen.Responses["extract cultural traits"] = "Sure! The culture is great."
	h := newHarness(t, gen, &fakeWeb{})

	final := h.orchestrator.Run(context.Background(), NewState(fullInput()))

	s := statuses(final)
	assert.Equal(t, OutcomeOK, s["intent"])
	assert.Equal(t, OutcomeFallback, s["culture"])
	assert.Equal(t, OutcomeOK, s["skill"])
	assert.Equal(t, FallbackCulture(), final.CompanyCulture)
	assert.Contains(t, final.Outcomes[1].Reason, core.ErrGenerationParse.Error())
}

func TestPipeline_JobSkillsQuotedFallback(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Responses = map[string]string{}
	for k, v := range happyResponses {
		gen.Responses[k] = v
	}
	gen.Responses["Extract technical skills"] = `Skills: "Go", "Rust"`
	h := newHarness(t, gen, &fakeWeb{})

	final := h.orchestrator.Run(context.Background(), NewState(fullInput()))

	assert.Equal(t, OutcomeOK, statuses(final)["skill"])
	var alignment string
	for _, p := range gen.Prompts() {
		if strings.Contains(p, "Analyze skill alignment") {
			alignment = p
		}
	}
	assert.Contains(t, alignment, `["Go","Rust"]`)
}

func TestPipeline_MissingInputs(t *testing.T) {
	gen := mock.NewMockGenerator()
	h := newHarness(t, gen, &fakeWeb{})

	final := h.orchestrator.Run(context.Background(), NewState(Input{}))

	for _, o := range final.Outcomes {
		assert.Equal(t, OutcomeSkipped, o.Status, o.Stage)
	}
	for _, k := range Keys {
		assert.True(t, final.Has(k), k)
	}
	assert.True(t, final.StudentIntents.IsEmpty())
	assert.True(t, final.CompatibilityScore.IsEmpty())
	assert.Equal(t, 0, gen.CallCount())
}

func TestPipeline_UnreadableResume(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Responses = happyResponses
	h := newHarness(t, gen, &fakeWeb{})

	input := fullInput()
	input.Resume = Document{Path: filepath.Join(t.TempDir(), "missing.txt")}

	final := h.orchestrator.Run(context.Background(), NewState(input))

	s := statuses(final)
	assert.Equal(t, OutcomeFallback, s["intent"])
	assert.Equal(t, OutcomeOK, s["culture"])
	assert.Equal(t, OutcomeFallback, s["skill"])
	assert.Equal(t, OutcomeOK, s["score"])
	assert.Contains(t, final.Outcomes[0].Reason, core.ErrExtraction.Error())
}

func TestPipeline_FileInputs(t *testing.T) {
	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.txt")
	linkedinPath := filepath.Join(dir, "linkedin.md")
	require.NoError(t, os.WriteFile(resumePath, []byte(resumeText), 0o644))
	require.NoError(t, os.WriteFile(linkedinPath, []byte("Open source maintainer of a Go router"), 0o644))

	gen := mock.NewMockGenerator()
	gen.Responses = happyResponses
	h := newHarness(t, gen, &fakeWeb{})

	input := fullInput()
	input.Resume = Document{Path: resumePath}
	input.LinkedIn = Document{Path: linkedinPath}

	final := h.orchestrator.Run(context.Background(), NewState(input))

	assert.Equal(t, OutcomeOK, statuses(final)["intent"])
	assert.Contains(t, gen.Prompts()[0], "Open source maintainer")
}

func TestPipeline_WebSearchFailureIsSkipped(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Responses = happyResponses
	web := &fakeWeb{err: errors.New("rate limited")}
	h := newHarness(t, gen, web)

	final := h.orchestrator.Run(context.Background(), NewState(fullInput()))

	assert.Equal(t, OutcomeOK, statuses(final)["culture"])
	assert.Len(t, web.Queries(), 3)
}

func TestParseJSON_StageShapes(t *testing.T) {
	report, err := ai.ParseJSON[core.CounselingReport](happyResponses["counseling report"])
	require.NoError(t, err)
	assert.Equal(t, []string{"CKA"}, report.SkillDevelopmentPlan)
}
