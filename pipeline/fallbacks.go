package pipeline

import (
	"time"

	"github.com/poiesic/careerfit/core"
)

// Fallback values substituted when a stage's external call fails or its
// output cannot be parsed. Each call returns a fresh value.

func FallbackIntents() *core.StudentIntents {
	return &core.StudentIntents{
		DesiredIndustries: []string{"Technology"},
		PreferredCulture:  []string{"Innovative"},
		WorkPreferences:   []string{"Hybrid"},
		LearningGoals:     []string{"Skill Development"},
		CareerAspirations: []string{"Technical Leadership"},
	}
}

func FallbackCulture() *core.CompanyCulture {
	return &core.CompanyCulture{
		Values:          []string{"Innovation"},
		WorkLifeBalance: "Flexible hours",
		LearningSupport: []string{"Training"},
		TeamCulture:     "Collaborative",
		CompanySize:     "Medium",
	}
}

func FallbackSkills() *core.SkillAlignment {
	return &core.SkillAlignment{
		MatchedSkills:       []string{"Python"},
		SkillGaps:           []string{"Machine Learning"},
		HiddenOpportunities: []string{"Data Analysis"},
		TransferableSkills:  []string{"Communication"},
	}
}

func FallbackScore(now time.Time) *core.CompatibilityScore {
	return &core.CompatibilityScore{
		Overall:         60,
		IntentAlignment: 60,
		SkillMatch:      60,
		CulturalFit:     60,
		Metadata: core.ScoreMetadata{
			Timestamp:  now,
			Version:    core.ScoreVersion,
			Confidence: core.ConfidenceMedium,
		},
	}
}

func FallbackReport() *core.CounselingReport {
	return &core.CounselingReport{
		MatchReasoning:         "Moderate fit based on available data",
		AlternativeSuggestions: []string{"Explore similar roles", "Consider other companies"},
		ActionableAdvice:       []string{"Develop technical skills", "Research company culture"},
		SkillDevelopmentPlan:   []string{"Take online courses", "Build projects"},
	}
}
