package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/careerfit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	name     string
	owns     []Key
	run      func(ctx context.Context, state *State) (Update, error)
	fallback Update
}

func (f *fakeStage) Name() string     { return f.name }
func (f *fakeStage) Owns() []Key      { return f.owns }
func (f *fakeStage) Fallback() Update { return f.fallback }

func (f *fakeStage) Run(ctx context.Context, state *State) (Update, error) {
	return f.run(ctx, state)
}

func intentsStage(run func(ctx context.Context, state *State) (Update, error)) *fakeStage {
	return &fakeStage{
		name:     "intent",
		owns:     []Key{KeyStudentIntents},
		run:      run,
		fallback: Update{StudentIntents: FallbackIntents()},
	}
}

func cultureStage(run func(ctx context.Context, state *State) (Update, error)) *fakeStage {
	return &fakeStage{
		name:     "culture",
		owns:     []Key{KeyCompanyCulture},
		run:      run,
		fallback: Update{CompanyCulture: FallbackCulture()},
	}
}

func newTestOrchestrator(t *testing.T, stages []Stage, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(stages, opts...)
	require.NoError(t, err)
	return o
}

func TestNewOrchestrator(t *testing.T) {
	ok := func(context.Context, *State) (Update, error) { return Update{}, nil }

	t.Run("requires stages", func(t *testing.T) {
		_, err := NewOrchestrator(nil)
		assert.ErrorIs(t, err, ErrNoStages)
	})

	t.Run("rejects nil stage", func(t *testing.T) {
		_, err := NewOrchestrator([]Stage{intentsStage(ok), nil})
		assert.Error(t, err)
	})

	t.Run("rejects two owners for one key", func(t *testing.T) {
		dup := intentsStage(ok)
		dup.name = "other"
		_, err := NewOrchestrator([]Stage{intentsStage(ok), dup})
		assert.ErrorIs(t, err, ErrDuplicateOwner)
	})

	t.Run("rejects negative timeout", func(t *testing.T) {
		_, err := NewOrchestrator([]Stage{intentsStage(ok)}, WithStageTimeout(-time.Second))
		assert.Error(t, err)
	})

	t.Run("keeps stage order", func(t *testing.T) {
		o := newTestOrchestrator(t, []Stage{intentsStage(ok), cultureStage(ok)})
		assert.Equal(t, []string{"intent", "culture"}, o.Stages())
	})
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("later stages see earlier output", func(t *testing.T) {
		var seen *core.StudentIntents
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				return Update{StudentIntents: &core.StudentIntents{DesiredIndustries: []string{"Fintech"}}}, nil
			}),
			cultureStage(func(_ context.Context, s *State) (Update, error) {
				seen = s.StudentIntents
				return Update{CompanyCulture: &core.CompanyCulture{Values: []string{"Fintech"}}}, nil
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		require.NotNil(t, seen)
		assert.Equal(t, []string{"Fintech"}, seen.DesiredIndustries)
		assert.Equal(t, []string{"Fintech"}, final.CompanyCulture.Values)
		require.Len(t, final.Outcomes, 2)
		assert.Equal(t, OutcomeOK, final.Outcomes[0].Status)
		assert.Equal(t, OutcomeOK, final.Outcomes[1].Status)
	})

	t.Run("missing input writes neutral values", func(t *testing.T) {
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				return Update{}, fmt.Errorf("%w: resume", ErrMissingInput)
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		require.NotNil(t, final.StudentIntents)
		assert.True(t, final.StudentIntents.IsEmpty())
		assert.Equal(t, OutcomeSkipped, final.Outcomes[0].Status)
		assert.Contains(t, final.Outcomes[0].Reason, "resume")
	})

	t.Run("stage error uses fallback and continues", func(t *testing.T) {
		ran := false
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				return Update{}, errors.New("generation service unavailable")
			}),
			cultureStage(func(context.Context, *State) (Update, error) {
				ran = true
				return Update{CompanyCulture: &core.CompanyCulture{Values: []string{"Trust"}}}, nil
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		assert.Equal(t, FallbackIntents(), final.StudentIntents)
		assert.True(t, ran)
		assert.Equal(t, OutcomeFallback, final.Outcomes[0].Status)
		assert.Equal(t, OutcomeOK, final.Outcomes[1].Status)
	})

	t.Run("panic uses fallback", func(t *testing.T) {
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				panic("boom")
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		assert.Equal(t, FallbackIntents(), final.StudentIntents)
		assert.Equal(t, OutcomeFallback, final.Outcomes[0].Status)
		assert.Contains(t, final.Outcomes[0].Reason, ErrStagePanic.Error())
	})

	t.Run("timeout uses fallback", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })

		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				<-release
				return Update{}, nil
			}),
		}, WithStageTimeout(20*time.Millisecond))

		final := o.Run(ctx, NewState(Input{}))

		assert.Equal(t, FallbackIntents(), final.StudentIntents)
		assert.Equal(t, OutcomeFallback, final.Outcomes[0].Status)
		assert.Contains(t, final.Outcomes[0].Reason, ErrStageTimeout.Error())
	})

	t.Run("keys outside ownership are dropped", func(t *testing.T) {
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				return Update{
					StudentIntents: &core.StudentIntents{LearningGoals: []string{"mentorship"}},
					CompanyCulture: &core.CompanyCulture{Values: []string{"stolen"}},
				}, nil
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		assert.Equal(t, []string{"mentorship"}, final.StudentIntents.LearningGoals)
		assert.Nil(t, final.CompanyCulture)
	})

	t.Run("existing keys are never overwritten", func(t *testing.T) {
		preset := &core.StudentIntents{DesiredIndustries: []string{"Healthcare"}}
		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(context.Context, *State) (Update, error) {
				return Update{StudentIntents: &core.StudentIntents{DesiredIndustries: []string{"Retail"}}}, nil
			}),
		})

		initial := NewState(Input{})
		initial.StudentIntents = preset
		final := o.Run(ctx, initial)

		assert.Equal(t, []string{"Healthcare"}, final.StudentIntents.DesiredIndustries)
	})

	t.Run("owned key left unset comes from fallback", func(t *testing.T) {
		o := newTestOrchestrator(t, []Stage{
			cultureStage(func(context.Context, *State) (Update, error) {
				return Update{}, nil
			}),
		})

		final := o.Run(ctx, NewState(Input{}))

		assert.Equal(t, FallbackCulture(), final.CompanyCulture)
		assert.Equal(t, OutcomeOK, final.Outcomes[0].Status)
	})

	t.Run("canceled context still reaches terminal state", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		o := newTestOrchestrator(t, []Stage{
			intentsStage(func(ctx context.Context, _ *State) (Update, error) {
				return Update{}, ctx.Err()
			}),
			cultureStage(func(ctx context.Context, _ *State) (Update, error) {
				return Update{}, ctx.Err()
			}),
		})

		final := o.Run(canceled, NewState(Input{}))

		assert.NotNil(t, final.StudentIntents)
		assert.NotNil(t, final.CompanyCulture)
		assert.Len(t, final.Outcomes, 2)
	})
}

func TestState_Record(t *testing.T) {
	state := NewState(Input{
		CareerGoals:     "Backend engineering",
		JobDescriptions: "Go developer",
		CompanyURLs:     []string{"https://example.com"},
	})
	state.SkillAlignment = &core.SkillAlignment{MatchedSkills: []string{"Go"}}
	state.Outcomes = []core.StageOutcome{{Stage: "skill", Status: OutcomeOK}}

	record := state.Record()

	assert.Equal(t, "Backend engineering", record.Input.CareerGoals)
	assert.Equal(t, []string{"https://example.com"}, record.Input.CompanyURLs)
	assert.Equal(t, []string{"Go"}, record.SkillAlignment.MatchedSkills)
	assert.True(t, record.StudentIntents.IsEmpty())
	assert.Len(t, record.Stages, 1)
	assert.Empty(t, record.ID)
}

func TestUpdate_Keys(t *testing.T) {
	assert.Empty(t, Update{}.Keys())

	u := neutral([]Key{KeyCounselingReport, KeyStudentIntents})
	assert.Equal(t, []Key{KeyStudentIntents, KeyCounselingReport}, u.Keys())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
}
