package pipeline

import (
	"strings"

	"github.com/poiesic/careerfit/core"
)

// Key names one stage-owned field of State.
type Key string

const (
	KeyStudentIntents     Key = "student_intents"
	KeyCompanyCulture     Key = "company_culture"
	KeySkillAlignment     Key = "skill_alignment"
	KeyCompatibilityScore Key = "compatibility_score"
	KeyCounselingReport   Key = "counseling_report"
)

// Keys lists every stage-owned key in pipeline order.
var Keys = []Key{
	KeyStudentIntents,
	KeyCompanyCulture,
	KeySkillAlignment,
	KeyCompatibilityScore,
	KeyCounselingReport,
}

// Document is a pipeline input given either as a file path or as text.
// Text wins when both are set.
type Document struct {
	Path string
	Text string
}

// IsZero reports whether the document carries neither text nor a path.
func (d Document) IsZero() bool {
	return strings.TrimSpace(d.Text) == "" && strings.TrimSpace(d.Path) == ""
}

// Input holds the fields a run starts from. Stages read it and never write it.
type Input struct {
	Resume          Document
	LinkedIn        Document
	CareerGoals     string
	Company         Document
	JobDescriptions string
	CompanyURLs     []string
}

// Summary returns the free-text part of the input for persistence.
func (in Input) Summary() core.InputSummary {
	return core.InputSummary{
		CareerGoals:     in.CareerGoals,
		JobDescriptions: in.JobDescriptions,
		CompanyURLs:     append([]string(nil), in.CompanyURLs...),
	}
}

// Update carries the keys a stage produced. Nil fields are unset.
type Update struct {
	StudentIntents     *core.StudentIntents
	CompanyCulture     *core.CompanyCulture
	SkillAlignment     *core.SkillAlignment
	CompatibilityScore *core.CompatibilityScore
	CounselingReport   *core.CounselingReport
}

// Keys returns the keys set in the update.
func (u Update) Keys() []Key {
	var keys []Key
	for _, k := range Keys {
		if u.has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (u Update) has(k Key) bool {
	switch k {
	case KeyStudentIntents:
		return u.StudentIntents != nil
	case KeyCompanyCulture:
		return u.CompanyCulture != nil
	case KeySkillAlignment:
		return u.SkillAlignment != nil
	case KeyCompatibilityScore:
		return u.CompatibilityScore != nil
	case KeyCounselingReport:
		return u.CounselingReport != nil
	}
	return false
}

// neutral returns an update with empty values for keys.
func neutral(keys []Key) Update {
	var u Update
	for _, k := range keys {
		switch k {
		case KeyStudentIntents:
			u.StudentIntents = &core.StudentIntents{}
		case KeyCompanyCulture:
			u.CompanyCulture = &core.CompanyCulture{}
		case KeySkillAlignment:
			u.SkillAlignment = &core.SkillAlignment{}
		case KeyCompatibilityScore:
			u.CompatibilityScore = &core.CompatibilityScore{}
		case KeyCounselingReport:
			u.CounselingReport = &core.CounselingReport{}
		}
	}
	return u
}

// State is the record threaded through a run. Input is fixed at start; each
// stage-owned field is written once by its owner and never replaced.
type State struct {
	Input Input

	StudentIntents     *core.StudentIntents
	CompanyCulture     *core.CompanyCulture
	SkillAlignment     *core.SkillAlignment
	CompatibilityScore *core.CompatibilityScore
	CounselingReport   *core.CounselingReport

	// Outcomes is written by the orchestrator, one entry per stage.
	Outcomes []core.StageOutcome
}

// NewState returns the initial state for input.
func NewState(input Input) State {
	return State{Input: input}
}

// Has reports whether key has been written.
func (s *State) Has(k Key) bool {
	switch k {
	case KeyStudentIntents:
		return s.StudentIntents != nil
	case KeyCompanyCulture:
		return s.CompanyCulture != nil
	case KeySkillAlignment:
		return s.SkillAlignment != nil
	case KeyCompatibilityScore:
		return s.CompatibilityScore != nil
	case KeyCounselingReport:
		return s.CounselingReport != nil
	}
	return false
}

// set copies key from u into s. Callers check ownership and Has first.
func (s *State) set(k Key, u Update) {
	switch k {
	case KeyStudentIntents:
		v := *u.StudentIntents
		s.StudentIntents = &v
	case KeyCompanyCulture:
		v := *u.CompanyCulture
		s.CompanyCulture = &v
	case KeySkillAlignment:
		v := *u.SkillAlignment
		s.SkillAlignment = &v
	case KeyCompatibilityScore:
		v := *u.CompatibilityScore
		s.CompatibilityScore = &v
	case KeyCounselingReport:
		v := *u.CounselingReport
		s.CounselingReport = &v
	}
}

// Record builds an unsaved AnalysisRecord from the terminal state. Unset
// keys become zero values.
func (s *State) Record() *core.AnalysisRecord {
	r := &core.AnalysisRecord{
		Input:  s.Input.Summary(),
		Stages: append([]core.StageOutcome(nil), s.Outcomes...),
	}
	if s.StudentIntents != nil {
		r.StudentIntents = *s.StudentIntents
	}
	if s.CompanyCulture != nil {
		r.CompanyCulture = *s.CompanyCulture
	}
	if s.SkillAlignment != nil {
		r.SkillAlignment = *s.SkillAlignment
	}
	if s.CompatibilityScore != nil {
		r.CompatibilityScore = *s.CompatibilityScore
	}
	if s.CounselingReport != nil {
		r.CounselingReport = *s.CounselingReport
	}
	return r
}
