package dto

import (
	"time"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// AssignmentCreateRequest starts a new portfolio assignment.
type AssignmentCreateRequest struct {
	Title        string `json:"title" validate:"omitempty,max=255"`
	Subject      string `json:"subject" validate:"omitempty,max=128"`
	Grade        string `json:"grade" validate:"omitempty,max=32"`
	Month        string `json:"month" validate:"omitempty,max=32"`
	ArtifactType string `json:"artifact_type" validate:"omitempty,max=64"`
	TeacherID    *uint  `json:"teacher_id" validate:"omitempty,gt=0"`
}

// AssignmentListQuery filters the student's assignment list.
type AssignmentListQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=draft in_progress overdue submitted needs_revision verified"`
	Search   string `query:"search" validate:"omitempty,max=128"`
	Sort     string `query:"sort" validate:"omitempty,max=32"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// DraftRequest carries the editable form state sent by autosave and submit.
type DraftRequest struct {
	Title                  string   `json:"title" validate:"max=255"`
	Subject                string   `json:"subject" validate:"max=128"`
	Grade                  string   `json:"grade" validate:"max=32"`
	Month                  string   `json:"month" validate:"max=32"`
	ArtifactType           string   `json:"artifact_type" validate:"max=64"`
	IsTeamWork             bool     `json:"is_team_work"`
	TeamContribution       string   `json:"team_contribution" validate:"max=4000"`
	IsOriginalWork         bool     `json:"is_original_work"`
	OriginalityExplanation string   `json:"originality_explanation" validate:"max=4000"`
	SelectedSkills         []string `json:"selected_skills" validate:"max=20,dive,max=64"`
	SkillsJustification    string   `json:"skills_justification" validate:"max=4000"`
	CreationProcess        string   `json:"creation_process" validate:"max=8000"`
	Learnings              string   `json:"learnings" validate:"max=8000"`
	Challenges             string   `json:"challenges" validate:"max=8000"`
	Improvements           string   `json:"improvements" validate:"max=8000"`
	Acknowledgments        string   `json:"acknowledgments" validate:"max=4000"`
}

// ToModel converts the request into the persisted draft shape.
func (r DraftRequest) ToModel() models.AssignmentDraft {
	return models.AssignmentDraft{
		Title:                  r.Title,
		Subject:                r.Subject,
		Grade:                  r.Grade,
		Month:                  r.Month,
		ArtifactType:           r.ArtifactType,
		IsTeamWork:             r.IsTeamWork,
		TeamContribution:       r.TeamContribution,
		IsOriginalWork:         r.IsOriginalWork,
		OriginalityExplanation: r.OriginalityExplanation,
		SelectedSkills:         append([]string{}, r.SelectedSkills...),
		SkillsJustification:    r.SkillsJustification,
		CreationProcess:        r.CreationProcess,
		Learnings:              r.Learnings,
		Challenges:             r.Challenges,
		Improvements:           r.Improvements,
		Acknowledgments:        r.Acknowledgments,
	}
}

// SubmitAssignmentRequest optionally carries the final form snapshot.
type SubmitAssignmentRequest struct {
	Draft *DraftRequest `json:"draft" validate:"omitempty"`
}

// AssignmentResponse is the full assignment representation.
type AssignmentResponse struct {
	ID                     uint                   `json:"id"`
	StudentID              uint                   `json:"student_id"`
	TeacherID              *uint                  `json:"teacher_id"`
	Title                  string                 `json:"title"`
	Subject                string                 `json:"subject"`
	Grade                  string                 `json:"grade"`
	Month                  string                 `json:"month"`
	ArtifactType           string                 `json:"artifact_type"`
	IsTeamWork             bool                   `json:"is_team_work"`
	TeamContribution       string                 `json:"team_contribution"`
	IsOriginalWork         bool                   `json:"is_original_work"`
	OriginalityExplanation string                 `json:"originality_explanation"`
	SelectedSkills         []string               `json:"selected_skills"`
	SkillsJustification    string                 `json:"skills_justification"`
	CreationProcess        string                 `json:"creation_process"`
	Learnings              string                 `json:"learnings"`
	Challenges             string                 `json:"challenges"`
	Improvements           string                 `json:"improvements"`
	Acknowledgments        string                 `json:"acknowledgments"`
	Status                 string                 `json:"status"`
	CurrentRevision        int                    `json:"current_revision"`
	RevisionHistory        []models.RevisionEntry `json:"revision_history"`
	Files                  []AttachmentResponse   `json:"files"`
	ExternalLinks          []AttachmentResponse   `json:"external_links"`
	Feedback               []FeedbackResponse     `json:"feedback"`
	SubmittedAt            *time.Time             `json:"submitted_at"`
	VerifiedAt             *time.Time             `json:"verified_at"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO. Feedback is kept in the
// order given; callers sort it first.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:                     model.ID,
		StudentID:              model.StudentID,
		TeacherID:              model.TeacherID,
		Title:                  model.Title,
		Subject:                model.Subject,
		Grade:                  model.Grade,
		Month:                  model.Month,
		ArtifactType:           model.ArtifactType,
		IsTeamWork:             model.IsTeamWork,
		TeamContribution:       model.TeamContribution,
		IsOriginalWork:         model.IsOriginalWork,
		OriginalityExplanation: model.OriginalityExplanation,
		SelectedSkills:         append([]string{}, model.SelectedSkills...),
		SkillsJustification:    model.SkillsJustification,
		CreationProcess:        model.CreationProcess,
		Learnings:              model.Learnings,
		Challenges:             model.Challenges,
		Improvements:           model.Improvements,
		Acknowledgments:        model.Acknowledgments,
		Status:                 string(model.Status),
		CurrentRevision:        model.CurrentRevision,
		RevisionHistory:        append([]models.RevisionEntry{}, model.RevisionHistory...),
		Files:                  []AttachmentResponse{},
		ExternalLinks:          []AttachmentResponse{},
		Feedback:               NewFeedbackResponseSlice(model.Feedback),
		SubmittedAt:            model.SubmittedAt,
		VerifiedAt:             model.VerifiedAt,
		CreatedAt:              model.CreatedAt,
		UpdatedAt:              model.UpdatedAt,
	}

	for _, attachment := range model.Files {
		if attachment.IsLink() {
			response.ExternalLinks = append(response.ExternalLinks, NewAttachmentResponse(attachment))
			continue
		}
		response.Files = append(response.Files, NewAttachmentResponse(attachment))
	}

	return response
}

// AssignmentSummary is the list representation of an assignment.
type AssignmentSummary struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	Revision    int        `json:"current_revision"`
	SubmittedAt *time.Time `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewAssignmentSummarySlice converts models into list DTOs.
func NewAssignmentSummarySlice(items []models.Assignment) []AssignmentSummary {
	out := make([]AssignmentSummary, 0, len(items))
	for _, item := range items {
		out = append(out, AssignmentSummary{
			ID:          item.ID,
			Title:       item.Title,
			Subject:     item.Subject,
			Status:      string(item.Status),
			Revision:    item.CurrentRevision,
			SubmittedAt: item.SubmittedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return out
}

// ListMeta describes pagination of list responses.
type ListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// DraftAcceptedResponse acknowledges a scheduled autosave.
type DraftAcceptedResponse struct {
	AssignmentID uint `json:"assignment_id"`
	Pending      bool `json:"pending"`
}
