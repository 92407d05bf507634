package models

import (
	"gorm.io/datatypes"
)

// AssignmentDraft is the student-editable part of an assignment, the unit
// persisted by autosave.
type AssignmentDraft struct {
	Title                  string   `json:"title"`
	Subject                string   `json:"subject"`
	Grade                  string   `json:"grade"`
	Month                  string   `json:"month"`
	ArtifactType           string   `json:"artifact_type"`
	IsTeamWork             bool     `json:"is_team_work"`
	TeamContribution       string   `json:"team_contribution"`
	IsOriginalWork         bool     `json:"is_original_work"`
	OriginalityExplanation string   `json:"originality_explanation"`
	SelectedSkills         []string `json:"selected_skills"`
	SkillsJustification    string   `json:"skills_justification"`
	CreationProcess        string   `json:"creation_process"`
	Learnings              string   `json:"learnings"`
	Challenges             string   `json:"challenges"`
	Improvements           string   `json:"improvements"`
	Acknowledgments        string   `json:"acknowledgments"`
}

// DraftFromAssignment extracts the editable fields.
func DraftFromAssignment(a Assignment) AssignmentDraft {
	skills := append([]string{}, a.SelectedSkills...)
	return AssignmentDraft{
		Title:                  a.Title,
		Subject:                a.Subject,
		Grade:                  a.Grade,
		Month:                  a.Month,
		ArtifactType:           a.ArtifactType,
		IsTeamWork:             a.IsTeamWork,
		TeamContribution:       a.TeamContribution,
		IsOriginalWork:         a.IsOriginalWork,
		OriginalityExplanation: a.OriginalityExplanation,
		SelectedSkills:         skills,
		SkillsJustification:    a.SkillsJustification,
		CreationProcess:        a.CreationProcess,
		Learnings:              a.Learnings,
		Challenges:             a.Challenges,
		Improvements:           a.Improvements,
		Acknowledgments:        a.Acknowledgments,
	}
}

// Apply copies the draft onto a.
func (d AssignmentDraft) Apply(a *Assignment) {
	a.Title = d.Title
	a.Subject = d.Subject
	a.Grade = d.Grade
	a.Month = d.Month
	a.ArtifactType = d.ArtifactType
	a.IsTeamWork = d.IsTeamWork
	a.TeamContribution = d.TeamContribution
	a.IsOriginalWork = d.IsOriginalWork
	a.OriginalityExplanation = d.OriginalityExplanation
	a.SelectedSkills = datatypes.JSONSlice[string](append([]string{}, d.SelectedSkills...))
	a.SkillsJustification = d.SkillsJustification
	a.CreationProcess = d.CreationProcess
	a.Learnings = d.Learnings
	a.Challenges = d.Challenges
	a.Improvements = d.Improvements
	a.Acknowledgments = d.Acknowledgments
}

// Columns returns the column updates for a partial draft write.
func (d AssignmentDraft) Columns() map[string]interface{} {
	return map[string]interface{}{
		"title":                   d.Title,
		"subject":                 d.Subject,
		"grade":                   d.Grade,
		"month":                   d.Month,
		"artifact_type":           d.ArtifactType,
		"is_team_work":            d.IsTeamWork,
		"team_contribution":       d.TeamContribution,
		"is_original_work":        d.IsOriginalWork,
		"originality_explanation": d.OriginalityExplanation,
		"selected_skills":         datatypes.JSONSlice[string](append([]string{}, d.SelectedSkills...)),
		"skills_justification":    d.SkillsJustification,
		"creation_process":        d.CreationProcess,
		"learnings":               d.Learnings,
		"challenges":              d.Challenges,
		"improvements":            d.Improvements,
		"acknowledgments":         d.Acknowledgments,
	}
}
