package scoring

import (
	"testing"
	"time"

	"github.com/poiesic/careerfit/core"
	"github.com/stretchr/testify/assert"
)

func TestIntentAlignment(t *testing.T) {
	t.Run("industry match alone", func(t *testing.T) {
		intents := &core.StudentIntents{DesiredIndustries: []string{"Technology"}}
		culture := &core.CompanyCulture{Values: []string{"Technology", "Innovation"}}
		assert.Equal(t, 30, IntentAlignment(intents, culture))
	})

	t.Run("all rules fire", func(t *testing.T) {
		intents := &core.StudentIntents{
			DesiredIndustries: []string{"fintech"},
			PreferredCulture:  []string{"innovative"},
			WorkPreferences:   []string{"Remote"},
		}
		culture := &core.CompanyCulture{
			Values:          []string{"FinTech leadership", "Innovative products"},
			WorkLifeBalance: "Flexible hours",
		}
		assert.Equal(t, 100, IntentAlignment(intents, culture))
	})

	t.Run("remote requires flexible balance", func(t *testing.T) {
		intents := &core.StudentIntents{WorkPreferences: []string{"remote"}}
		assert.Equal(t, 0, IntentAlignment(intents, &core.CompanyCulture{WorkLifeBalance: "fixed schedule"}))
		assert.Equal(t, 30, IntentAlignment(intents, &core.CompanyCulture{WorkLifeBalance: "very FLEXIBLE"}))
	})

	t.Run("remote must be a whole preference", func(t *testing.T) {
		intents := &core.StudentIntents{WorkPreferences: []string{"remote-first hybrid"}}
		assert.Equal(t, 0, IntentAlignment(intents, &core.CompanyCulture{WorkLifeBalance: "flexible"}))
	})

	t.Run("blank entries never match", func(t *testing.T) {
		intents := &core.StudentIntents{DesiredIndustries: []string{"", "  "}}
		culture := &core.CompanyCulture{Values: []string{"anything"}}
		assert.Equal(t, 0, IntentAlignment(intents, culture))
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.Equal(t, 0, IntentAlignment(nil, &core.CompanyCulture{}))
		assert.Equal(t, 0, IntentAlignment(&core.StudentIntents{}, nil))
	})
}

func TestSkillMatch(t *testing.T) {
	assert.Equal(t, 100, SkillMatch(&core.SkillAlignment{MatchedSkills: []string{"Python"}}))
	assert.Equal(t, 50, SkillMatch(&core.SkillAlignment{}))
	assert.Equal(t, 50, SkillMatch(nil))
	assert.Equal(t, 0, SkillMatch(&core.SkillAlignment{SkillGaps: []string{"Go"}}))
	assert.Equal(t, 66, SkillMatch(&core.SkillAlignment{
		MatchedSkills: []string{"Go", "SQL"},
		SkillGaps:     []string{"Rust"},
	}))
}

func TestCulturalFit(t *testing.T) {
	intents := &core.StudentIntents{
		LearningGoals:     []string{"mentorship"},
		CareerAspirations: []string{"leadership"},
	}
	culture := &core.CompanyCulture{
		Values:          []string{"Technical Leadership"},
		LearningSupport: []string{"Mentorship program", "Conference budget"},
	}
	assert.Equal(t, 100, CulturalFit(intents, culture))

	culture.Values = nil
	assert.Equal(t, 50, CulturalFit(intents, culture))

	assert.Equal(t, 0, CulturalFit(&core.StudentIntents{}, culture))
}

func TestOverallAndConfidence(t *testing.T) {
	assert.Equal(t, 60, Overall(60, 60, 60))
	assert.Equal(t, 67, Overall(100, 100, 0))
	assert.Equal(t, 33, Overall(100, 0, 0))
	assert.Equal(t, 1, Overall(1, 1, 2))
	assert.Equal(t, 0, Overall())

	assert.Equal(t, core.ConfidenceHigh, Confidence(71))
	assert.Equal(t, core.ConfidenceMedium, Confidence(70))
	assert.Equal(t, core.ConfidenceMedium, Confidence(51))
	assert.Equal(t, core.ConfidenceLow, Confidence(50))
	assert.Equal(t, core.ConfidenceLow, Confidence(0))
}

func TestAggregate(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	intents := &core.StudentIntents{
		DesiredIndustries: []string{"Technology"},
		LearningGoals:     []string{"Training"},
	}
	culture := &core.CompanyCulture{
		Values:          []string{"Technology", "Innovation"},
		LearningSupport: []string{"Training"},
	}
	skills := &core.SkillAlignment{MatchedSkills: []string{"Python"}}

	score := Aggregate(intents, culture, skills, now)

	assert.Equal(t, 30, score.IntentAlignment)
	assert.Equal(t, 100, score.SkillMatch)
	assert.Equal(t, 50, score.CulturalFit)
	assert.Equal(t, 60, score.Overall)
	assert.Equal(t, core.ConfidenceMedium, score.Metadata.Confidence)
	assert.Equal(t, core.ScoreVersion, score.Metadata.Version)
	assert.Equal(t, now, score.Metadata.Timestamp)
	assert.False(t, score.IsEmpty())

	again := Aggregate(intents, culture, skills, now)
	assert.Equal(t, score, again)
}
