package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

const groundingRules = `Rules:
1. Base your response solely on the provided context.
2. Do not infer information not explicitly stated.`

const intentPromptTemplate = `Analyze the following information to extract student intents and preferences:

%s

Return a JSON object with:
{
  "desired_industries": ["industry1", "industry2"],
  "preferred_culture": ["startup", "corporate", "remote-first"],
  "work_preferences": ["remote", "hybrid", "in-office"],
  "learning_goals": ["mentorship", "training", "certification"],
  "career_aspirations": ["leadership", "technical expertise", "entrepreneurship"]
}

%s
3. Ensure all values are arrays of strings.`

const culturePromptTemplate = `Analyze the following company information to extract cultural traits:

%s

Return a JSON object with:
{
  "values": ["value1", "value2"],
  "work_life_balance": "description",
  "learning_support": ["program1", "program2"],
  "team_culture": "description",
  "company_size": "startup/medium/large"
}

%s
3. Ensure values and learning_support are arrays of strings.`

const jobSkillsPromptTemplate = `Extract technical skills from these job descriptions:

%s

Return a JSON array: ["skill1", "skill2"]

%s`

const alignmentPromptTemplate = `Analyze skill alignment:

Student Context: %s
Job Requirements: %s
Required Skills: %s

Return JSON with:
{
  "matched_skills": ["skill1", "skill2"],
  "skill_gaps": ["missing_skill1", "missing_skill2"],
  "hidden_opportunities": ["opportunity1", "opportunity2"],
  "transferable_skills": ["skill1", "skill2"]
}

Rules:
1. Base your response solely on the provided context.
2. Identify at least one hidden opportunity.`

const reportPromptTemplate = `Generate a counseling report:

Overall Score: %d%%
Student Intents: %s
Company Culture: %s
Skill Alignment: %s

Return JSON with:
{
  "match_reasoning": "explanation",
  "alternative_suggestions": ["suggestion1", "suggestion2"],
  "actionable_advice": ["advice1", "advice2"],
  "skill_development_plan": ["step1", "step2"]
}

Rules:
1. Base your response solely on the provided context.
2. For scores below 70, suggest at least 2 alternatives.
3. Make advice specific and actionable.`

func intentPrompt(evidence string) string {
	return fmt.Sprintf(intentPromptTemplate, evidence, groundingRules)
}

func culturePrompt(evidence string) string {
	return fmt.Sprintf(culturePromptTemplate, evidence, groundingRules)
}

func jobSkillsPrompt(jobs string) string {
	return fmt.Sprintf(jobSkillsPromptTemplate, jobs, strings.Replace(groundingRules, "information", "skills", 1))
}

func alignmentPrompt(studentContext, jobs string, skills []string) string {
	return fmt.Sprintf(alignmentPromptTemplate, studentContext, jobs, toJSON(skills))
}

func reportPrompt(overall int, intents, culture, skills any) string {
	return fmt.Sprintf(reportPromptTemplate, overall, toJSON(intents), toJSON(culture), toJSON(skills))
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// truncate returns at most limit runes of s.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
