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

package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/careerfit"
	"github.com/poiesic/careerfit/core"
	"github.com/poiesic/careerfit/pipeline"
)

// AnalyzeInput is the input schema for analyze_compatibility.
type AnalyzeInput struct {
	ResumePath      string   `json:"resume_path,omitempty" jsonschema:"path to the resume (pdf, txt, md, docx)"`
	ResumeText      string   `json:"resume_text,omitempty" jsonschema:"resume text, used instead of resume_path"`
	LinkedInPath    string   `json:"linkedin_path,omitempty" jsonschema:"optional path to an exported LinkedIn profile"`
	LinkedInText    string   `json:"linkedin_text,omitempty" jsonschema:"optional LinkedIn profile text"`
	CareerGoals     string   `json:"career_goals" jsonschema:"the candidate's career goals"`
	CompanyPath     string   `json:"company_path,omitempty" jsonschema:"path to the company document"`
	CompanyText     string   `json:"company_text,omitempty" jsonschema:"company document text, used instead of company_path"`
	JobDescriptions string   `json:"job_descriptions" jsonschema:"job description text"`
	CompanyURLs     []string `json:"company_urls,omitempty" jsonschema:"company web pages to research (first three are used)"`
}

// SubmissionOutput is the output schema for analyze_compatibility.
type SubmissionOutput struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// AnalysisInput selects one stored analysis.
type AnalysisInput struct {
	AnalysisID string `json:"analysis_id" jsonschema:"id returned by analyze_compatibility"`
}

// AnalysisOutput is the output schema for get_analysis.
type AnalysisOutput struct {
	AnalysisID             string        `json:"analysis_id"`
	Status                 string        `json:"status"`
	CreatedAt              string        `json:"created_at"`
	DesiredIndustries      []string      `json:"desired_industries"`
	WorkPreferences        []string      `json:"work_preferences"`
	CareerAspirations      []string      `json:"career_aspirations"`
	CompanyValues          []string      `json:"company_values"`
	WorkLifeBalance        string        `json:"work_life_balance"`
	TeamCulture            string        `json:"team_culture"`
	MatchedSkills          []string      `json:"matched_skills"`
	SkillGaps              []string      `json:"skill_gaps"`
	TransferableSkills     []string      `json:"transferable_skills"`
	Score                  SummaryOutput `json:"score"`
	AlternativeSuggestions []string      `json:"alternative_suggestions"`
	ActionableAdvice       []string      `json:"actionable_advice"`
	SkillDevelopmentPlan   []string      `json:"skill_development_plan"`
	AnalysisSummary        string        `json:"analysis_summary"`
	DegradedStages         []string      `json:"degraded_stages"`
}

// SummaryOutput is the output schema for get_analysis_summary.
type SummaryOutput struct {
	AnalysisID         string `json:"analysis_id"`
	OverallScore       int    `json:"overall_score"`
	IntentAlignment    int    `json:"intent_alignment"`
	SkillMatch         int    `json:"skill_match"`
	CulturalFit        int    `json:"cultural_fit"`
	Confidence         string `json:"confidence"`
	MatchReasoning     string `json:"match_reasoning"`
	MatchedSkillsCount int    `json:"matched_skills_count"`
	SkillGapsCount     int    `json:"skill_gaps_count"`
}

// IndexInput is the input schema for index_document.
type IndexInput struct {
	Path       string `json:"path,omitempty" jsonschema:"file to index"`
	Text       string `json:"text,omitempty" jsonschema:"text to index, used instead of path"`
	SourceType string `json:"source_type,omitempty" jsonschema:"one of resume, linkedin, company, web (default company)"`
}

// IndexOutput is the output schema for index_document.
type IndexOutput struct {
	ContentHash string `json:"content_hash"`
}

// SearchInput is the input schema for search_document.
type SearchInput struct {
	Query       string `json:"query" jsonschema:"the search query"`
	ContentHash string `json:"content_hash" jsonschema:"hash returned by index_document"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return"`
}

// SearchOutput is the output schema for search_document.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one ranked chunk.
type SearchResultOutput struct {
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_compatibility",
		Description: "Score how well a candidate fits a company and produce a counseling report",
	}, s.handleAnalyze)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Fetch a stored compatibility analysis",
	}, s.handleGetAnalysis)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_analysis_summary",
		Description: "Fetch the score summary of a stored compatibility analysis",
	}, s.handleGetSummary)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_document",
		Description: "Chunk and embed a document so it can be searched",
	}, s.handleIndex)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_document",
		Description: "Find the chunks of an indexed document most similar to a query",
	}, s.handleSearch)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, SubmissionOutput, error) {
	sub, err := s.svc.Analyze(ctx, &careerfit.Request{
		ResumePath:      input.ResumePath,
		ResumeText:      input.ResumeText,
		LinkedInPath:    input.LinkedInPath,
		LinkedInText:    input.LinkedInText,
		CareerGoals:     input.CareerGoals,
		CompanyPath:     input.CompanyPath,
		CompanyText:     input.CompanyText,
		JobDescriptions: input.JobDescriptions,
		CompanyURLs:     input.CompanyURLs,
	})
	if err != nil {
		return nil, SubmissionOutput{}, err
	}
	return nil, SubmissionOutput{
		AnalysisID: sub.AnalysisID,
		Status:     sub.Status,
		Message:    sub.Message,
	}, nil
}

func (s *Server) handleGetAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalysisInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	rec, err := s.svc.Get(ctx, input.AnalysisID)
	if err != nil {
		return nil, AnalysisOutput{}, err
	}

	var degraded []string
	for _, o := range rec.Stages {
		if o.Status != pipeline.OutcomeOK {
			degraded = append(degraded, o.Stage+": "+o.Status)
		}
	}
	return nil, AnalysisOutput{
		AnalysisID:             rec.ID,
		Status:                 rec.Status,
		CreatedAt:              rec.CreatedAt.UTC().Format(time.RFC3339),
		DesiredIndustries:      orEmpty(rec.StudentIntents.DesiredIndustries),
		WorkPreferences:        orEmpty(rec.StudentIntents.WorkPreferences),
		CareerAspirations:      orEmpty(rec.StudentIntents.CareerAspirations),
		CompanyValues:          orEmpty(rec.CompanyCulture.Values),
		WorkLifeBalance:        rec.CompanyCulture.WorkLifeBalance,
		TeamCulture:            rec.CompanyCulture.TeamCulture,
		MatchedSkills:          orEmpty(rec.SkillAlignment.MatchedSkills),
		SkillGaps:              orEmpty(rec.SkillAlignment.SkillGaps),
		TransferableSkills:     orEmpty(rec.SkillAlignment.TransferableSkills),
		Score:                  summaryOutput(rec.Summarize()),
		AlternativeSuggestions: orEmpty(rec.CounselingReport.AlternativeSuggestions),
		ActionableAdvice:       orEmpty(rec.CounselingReport.ActionableAdvice),
		SkillDevelopmentPlan:   orEmpty(rec.CounselingReport.SkillDevelopmentPlan),
		AnalysisSummary:        rec.Summary,
		DegradedStages:         orEmpty(degraded),
	}, nil
}

func (s *Server) handleGetSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalysisInput,
) (*mcp.CallToolResult, SummaryOutput, error) {
	summary, err := s.svc.Summary(ctx, input.AnalysisID)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	return nil, summaryOutput(summary), nil
}

func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	sourceType, err := parseSourceType(input.SourceType)
	if err != nil {
		return nil, IndexOutput{}, err
	}

	var hash core.ContentHash
	switch {
	case strings.TrimSpace(input.Text) != "":
		hash, err = s.svc.IndexText(ctx, input.Text, sourceType)
	case input.Path != "":
		hash, err = s.svc.Index(ctx, input.Path, sourceType)
	default:
		return nil, IndexOutput{}, ErrDocumentRequired
	}
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, IndexOutput{ContentHash: string(hash)}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.svc.Search(ctx, input.Query, core.ContentHash(input.ContentHash), input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		output.Results[i] = SearchResultOutput{
			Ordinal: r.Ordinal,
			Score:   float64(r.Score),
			Text:    r.Text,
		}
	}
	return nil, output, nil
}

func summaryOutput(s *core.AnalysisSummary) SummaryOutput {
	return SummaryOutput{
		AnalysisID:         s.AnalysisID,
		OverallScore:       s.OverallScore,
		IntentAlignment:    s.IntentAlignment,
		SkillMatch:         s.SkillMatch,
		CulturalFit:        s.CulturalFit,
		Confidence:         s.Confidence,
		MatchReasoning:     s.MatchReasoning,
		MatchedSkillsCount: s.MatchedSkillsCount,
		SkillGapsCount:     s.SkillGapsCount,
	}
}

func parseSourceType(raw string) (core.SourceType, error) {
	switch st := core.SourceType(strings.ToLower(strings.TrimSpace(raw))); st {
	case "":
		return core.SourceCompany, nil
	case core.SourceResume, core.SourceLinkedIn, core.SourceCompany, core.SourceWeb:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceType, raw)
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
