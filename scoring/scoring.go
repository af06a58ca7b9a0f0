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

// Package scoring combines intents, culture, and skill alignment into a
// CompatibilityScore. Every rule is a case-insensitive substring or
// membership check over enumerated lists, so identical inputs always
// produce identical scores.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/poiesic/careerfit/core"
)

// Point buckets for the intent alignment rules.
const (
	IndustryPoints = 30
	CulturePoints  = 40
	RemotePoints   = 30
)

// Point buckets for the cultural fit rules.
const (
	LearningPoints   = 50
	AspirationPoints = 50
)

// NeutralSkillMatch is the skill score when no skills were matched or missed.
const NeutralSkillMatch = 50

// Aggregate computes the three sub-scores, their rounded mean, and the
// confidence bucket. now is recorded as the score timestamp.
func Aggregate(intents *core.StudentIntents, culture *core.CompanyCulture, skills *core.SkillAlignment, now time.Time) core.CompatibilityScore {
	intent := IntentAlignment(intents, culture)
	skill := SkillMatch(skills)
	fit := CulturalFit(intents, culture)
	overall := Overall(intent, skill, fit)

	return core.CompatibilityScore{
		Overall:         overall,
		IntentAlignment: intent,
		SkillMatch:      skill,
		CulturalFit:     fit,
		Metadata: core.ScoreMetadata{
			Timestamp:  now.UTC(),
			Version:    core.ScoreVersion,
			Confidence: Confidence(overall),
		},
	}
}

// Overall returns round(mean(scores)) clamped to [0,100]. Halves round away
// from zero.
func Overall(scores ...int) int {
	if len(scores) == 0 {
		return 0
	}
	var sum int
	for _, s := range scores {
		sum += s
	}
	return clamp(int(math.Round(float64(sum) / float64(len(scores)))))
}

// Confidence maps an overall score to its bucket: above 70 is high, above
// 50 is medium, anything else is low.
func Confidence(overall int) string {
	switch {
	case overall > 70:
		return core.ConfidenceHigh
	case overall > 50:
		return core.ConfidenceMedium
	default:
		return core.ConfidenceLow
	}
}

// IntentAlignment awards IndustryPoints when a desired industry appears in a
// company value, CulturePoints when a preferred culture tag appears in a
// company value, and RemotePoints when the candidate prefers remote work and
// the work-life balance description mentions flexibility.
func IntentAlignment(intents *core.StudentIntents, culture *core.CompanyCulture) int {
	if intents == nil || culture == nil {
		return 0
	}
	values := joinLower(culture.Values)

	score := 0
	if anyIn(intents.DesiredIndustries, values) {
		score += IndustryPoints
	}
	if anyIn(intents.PreferredCulture, values) {
		score += CulturePoints
	}
	if containsFold(intents.WorkPreferences, "remote") &&
		strings.Contains(strings.ToLower(culture.WorkLifeBalance), "flexible") {
		score += RemotePoints
	}
	return clamp(score)
}

// SkillMatch returns matched/(matched+gaps) as a truncated percentage, or
// NeutralSkillMatch when both lists are empty.
func SkillMatch(skills *core.SkillAlignment) int {
	if skills == nil {
		return NeutralSkillMatch
	}
	matched, gaps := len(skills.MatchedSkills), len(skills.SkillGaps)
	if matched+gaps == 0 {
		return NeutralSkillMatch
	}
	return clamp(matched * 100 / (matched + gaps))
}

// CulturalFit awards LearningPoints when a learning goal appears in the
// company's learning support and AspirationPoints when a career aspiration
// appears in a company value.
func CulturalFit(intents *core.StudentIntents, culture *core.CompanyCulture) int {
	if intents == nil || culture == nil {
		return 0
	}
	score := 0
	if anyIn(intents.LearningGoals, joinLower(culture.LearningSupport)) {
		score += LearningPoints
	}
	if anyIn(intents.CareerAspirations, joinLower(culture.Values)) {
		score += AspirationPoints
	}
	return clamp(score)
}

func joinLower(items []string) string {
	return strings.ToLower(strings.Join(items, " "))
}

// anyIn reports whether any non-blank needle is a substring of haystack.
// haystack must already be lowercased.
func anyIn(needles []string, haystack string) bool {
	for _, needle := range needles {
		n := strings.ToLower(strings.TrimSpace(needle))
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsFold(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), target) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	return max(0, min(100, score))
}
