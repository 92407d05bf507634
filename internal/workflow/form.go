package workflow

import (
	"strings"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// Artifact is the part of an attachment the validator cares about.
type Artifact struct {
	ID  uint
	URL string
}

// FormData is the shared form state read by every step.
type FormData struct {
	Title                  string
	Subject                string
	Grade                  string
	Month                  string
	ArtifactType           string
	IsTeamWork             bool
	TeamContribution       string
	IsOriginalWork         bool
	OriginalityExplanation string
	SelectedSkills         []string
	SkillsJustification    string
	CreationProcess        string
	Learnings              string
	Challenges             string
	Improvements           string
	Acknowledgments        string
	Files                  []Artifact
	ExternalLinks          []Artifact
	Status                 models.AssignmentStatus
}

// FormFromAssignment builds the form state from a persisted assignment.
func FormFromAssignment(a models.Assignment) FormData {
	form := FormData{
		Title:                  a.Title,
		Subject:                a.Subject,
		Grade:                  a.Grade,
		Month:                  a.Month,
		ArtifactType:           a.ArtifactType,
		IsTeamWork:             a.IsTeamWork,
		TeamContribution:       a.TeamContribution,
		IsOriginalWork:         a.IsOriginalWork,
		OriginalityExplanation: a.OriginalityExplanation,
		SelectedSkills:         append([]string(nil), a.SelectedSkills...),
		SkillsJustification:    a.SkillsJustification,
		CreationProcess:        a.CreationProcess,
		Learnings:              a.Learnings,
		Challenges:             a.Challenges,
		Improvements:           a.Improvements,
		Acknowledgments:        a.Acknowledgments,
		Status:                 a.Status,
	}

	for _, file := range a.Files {
		artifact := Artifact{ID: file.ID, URL: file.URL}
		if file.IsLink() {
			form.ExternalLinks = append(form.ExternalLinks, artifact)
			continue
		}
		form.Files = append(form.Files, artifact)
	}

	return form
}

// HasArtifact reports whether the form carries a file or a non-blank link.
func (f FormData) HasArtifact() bool {
	if len(f.Files) > 0 {
		return true
	}
	for _, link := range f.ExternalLinks {
		if strings.TrimSpace(link.URL) != "" {
			return true
		}
	}
	return false
}

// value resolves a required field by its wire name.
func (f FormData) value(name string) (interface{}, bool) {
	switch name {
	case "title":
		return f.Title, true
	case "subject":
		return f.Subject, true
	case "grade":
		return f.Grade, true
	case "month":
		return f.Month, true
	case "artifact_type":
		return f.ArtifactType, true
	case "is_team_work":
		return f.IsTeamWork, true
	case "team_contribution":
		return f.TeamContribution, true
	case "is_original_work":
		return f.IsOriginalWork, true
	case "originality_explanation":
		return f.OriginalityExplanation, true
	case "selected_skills":
		return f.SelectedSkills, true
	case "skills_justification":
		return f.SkillsJustification, true
	case "creation_process":
		return f.CreationProcess, true
	case "learnings":
		return f.Learnings, true
	case "challenges":
		return f.Challenges, true
	case "improvements":
		return f.Improvements, true
	case "acknowledgments":
		return f.Acknowledgments, true
	case "files":
		return f.Files, true
	case "external_links":
		return f.ExternalLinks, true
	default:
		return nil, false
	}
}
