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

package core

import "time"

// Confidence buckets derived from the overall score.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ScoreVersion tags the scoring rules that produced a CompatibilityScore.
const ScoreVersion = "1.0"

// StatusCompleted is the only status a persisted analysis can have.
const StatusCompleted = "completed"

// StudentIntents captures what the candidate is looking for.
type StudentIntents struct {
	DesiredIndustries []string `json:"desired_industries"`
	PreferredCulture  []string `json:"preferred_culture"`
	WorkPreferences   []string `json:"work_preferences"`
	LearningGoals     []string `json:"learning_goals"`
	CareerAspirations []string `json:"career_aspirations"`
}

// IsEmpty reports whether no field carries any value.
func (s *StudentIntents) IsEmpty() bool {
	return s == nil || (len(s.DesiredIndustries) == 0 &&
		len(s.PreferredCulture) == 0 &&
		len(s.WorkPreferences) == 0 &&
		len(s.LearningGoals) == 0 &&
		len(s.CareerAspirations) == 0)
}

// CompanyCulture captures the cultural traits of the target company.
type CompanyCulture struct {
	Values          []string `json:"values"`
	WorkLifeBalance string   `json:"work_life_balance"`
	LearningSupport []string `json:"learning_support"`
	TeamCulture     string   `json:"team_culture"`
	CompanySize     string   `json:"company_size"`
}

// IsEmpty reports whether no field carries any value.
func (c *CompanyCulture) IsEmpty() bool {
	return c == nil || (len(c.Values) == 0 &&
		c.WorkLifeBalance == "" &&
		len(c.LearningSupport) == 0 &&
		c.TeamCulture == "" &&
		c.CompanySize == "")
}

// SkillAlignment compares the candidate's skills with the role requirements.
type SkillAlignment struct {
	MatchedSkills       []string `json:"matched_skills"`
	SkillGaps           []string `json:"skill_gaps"`
	HiddenOpportunities []string `json:"hidden_opportunities"`
	TransferableSkills  []string `json:"transferable_skills"`
}

// IsEmpty reports whether no field carries any value.
func (s *SkillAlignment) IsEmpty() bool {
	return s == nil || (len(s.MatchedSkills) == 0 &&
		len(s.SkillGaps) == 0 &&
		len(s.HiddenOpportunities) == 0 &&
		len(s.TransferableSkills) == 0)
}

// ScoreMetadata describes how and when a score was produced.
type ScoreMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"analysis_version"`
	Confidence string    `json:"confidence"`
}

// CompatibilityScore holds the three sub-scores and their aggregate.
// Every score is in [0,100].
type CompatibilityScore struct {
	Overall         int           `json:"overall_score"`
	IntentAlignment int           `json:"intent_alignment"`
	SkillMatch      int           `json:"skill_match"`
	CulturalFit     int           `json:"cultural_fit"`
	Metadata        ScoreMetadata `json:"metadata"`
}

// IsEmpty reports whether the score was never computed.
func (c *CompatibilityScore) IsEmpty() bool {
	return c == nil || c.Metadata.Version == ""
}

// CounselingReport is the narrative advice generated from a score.
type CounselingReport struct {
	MatchReasoning         string   `json:"match_reasoning"`
	AlternativeSuggestions []string `json:"alternative_suggestions"`
	ActionableAdvice       []string `json:"actionable_advice"`
	SkillDevelopmentPlan   []string `json:"skill_development_plan"`
}

// InputSummary is the subset of the request kept with the record.
type InputSummary struct {
	CareerGoals     string   `json:"career_goals"`
	JobDescriptions string   `json:"job_descriptions"`
	CompanyURLs     []string `json:"company_urls"`
}

// StageOutcome records how one pipeline stage finished.
type StageOutcome struct {
	Stage    string        `json:"stage"`
	Status   string        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// AnalysisRecord is the persisted result of one pipeline run.
// It is immutable once saved.
type AnalysisRecord struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	Status             string             `json:"status"`
	Input              InputSummary       `json:"input_data"`
	StudentIntents     StudentIntents     `json:"student_intents"`
	CompanyCulture     CompanyCulture     `json:"company_culture"`
	SkillAlignment     SkillAlignment     `json:"skill_alignment"`
	CompatibilityScore CompatibilityScore `json:"compatibility_score"`
	CounselingReport   CounselingReport   `json:"counseling_report"`
	Summary            string             `json:"analysis_summary"`
	Stages             []StageOutcome     `json:"stages,omitempty"`
}

// AnalysisSummary is the condensed view of an AnalysisRecord.
type AnalysisSummary struct {
	AnalysisID         string    `json:"analysis_id"`
	OverallScore       int       `json:"overall_score"`
	IntentAlignment    int       `json:"intent_alignment"`
	SkillMatch         int       `json:"skill_match"`
	CulturalFit        int       `json:"cultural_fit"`
	Confidence         string    `json:"confidence"`
	CreatedAt          time.Time `json:"created_at"`
	MatchReasoning     string    `json:"match_reasoning"`
	MatchedSkillsCount int       `json:"matched_skills_count"`
	SkillGapsCount     int       `json:"skill_gaps_count"`
	Status             string    `json:"status"`
}

// Summarize condenses the record.
func (r *AnalysisRecord) Summarize() *AnalysisSummary {
	confidence := r.CompatibilityScore.Metadata.Confidence
	if confidence == "" {
		confidence = ConfidenceMedium
	}
	return &AnalysisSummary{
		AnalysisID:         r.ID,
		OverallScore:       r.CompatibilityScore.Overall,
		IntentAlignment:    r.CompatibilityScore.IntentAlignment,
		SkillMatch:         r.CompatibilityScore.SkillMatch,
		CulturalFit:        r.CompatibilityScore.CulturalFit,
		Confidence:         confidence,
		CreatedAt:          r.CreatedAt,
		MatchReasoning:     r.CounselingReport.MatchReasoning,
		MatchedSkillsCount: len(r.SkillAlignment.MatchedSkills),
		SkillGapsCount:     len(r.SkillAlignment.SkillGaps),
		Status:             r.Status,
	}
}
