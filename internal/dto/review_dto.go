package dto

import (
	"time"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// ReviewRequest is the teacher's decision on a submitted assignment.
type ReviewRequest struct {
	Decision            string            `json:"decision" validate:"required,oneof=approved needs_revision"`
	Comment             string            `json:"comment" validate:"max=8000"`
	ChecklistComplete   bool              `json:"checklist_complete"`
	SelectedSkills      []string          `json:"selected_skills" validate:"max=20,dive,max=64"`
	SkillsJustification string            `json:"skills_justification" validate:"max=4000"`
	QuestionComments    map[string]string `json:"question_comments" validate:"max=32,dive,max=4000"`
}

// FeedbackResponse is one feedback entry.
type FeedbackResponse struct {
	ID                  uint                              `json:"id"`
	TeacherID           uint                              `json:"teacher_id"`
	Decision            string                            `json:"decision"`
	Comment             string                            `json:"comment"`
	SelectedSkills      []string                          `json:"selected_skills"`
	SkillsJustification string                            `json:"skills_justification"`
	QuestionComments    map[string]models.QuestionComment `json:"question_comments"`
	CreatedAt           time.Time                         `json:"created_at"`
}

// NewFeedbackResponse converts a model into a DTO.
func NewFeedbackResponse(model models.FeedbackItem) FeedbackResponse {
	comments := model.QuestionComments.Data()
	if comments == nil {
		comments = map[string]models.QuestionComment{}
	}
	return FeedbackResponse{
		ID:                  model.ID,
		TeacherID:           model.TeacherID,
		Decision:            string(model.Decision),
		Comment:             model.Comment,
		SelectedSkills:      append([]string{}, model.SelectedSkills...),
		SkillsJustification: model.SkillsJustification,
		QuestionComments:    comments,
		CreatedAt:           model.CreatedAt,
	}
}

// NewFeedbackResponseSlice converts models, preserving order.
func NewFeedbackResponseSlice(items []models.FeedbackItem) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewFeedbackResponse(item))
	}
	return out
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Warning    string             `json:"warning,omitempty"`
}

// ReviewResponse is returned after a review decision.
type ReviewResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Feedback   []FeedbackResponse `json:"feedback"`
	Warning    string             `json:"warning,omitempty"`
}

// ReviewQueueItem is one submitted assignment awaiting review.
type ReviewQueueItem struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	StudentID       uint       `json:"student_id"`
	StudentName     string     `json:"student_name"`
	TeacherID       *uint      `json:"teacher_id"`
	CurrentRevision int        `json:"current_revision"`
	SubmittedAt     *time.Time `json:"submitted_at"`
}

// NewReviewQueueSlice converts queued assignments.
func NewReviewQueueSlice(items []models.Assignment) []ReviewQueueItem {
	out := make([]ReviewQueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, ReviewQueueItem{
			ID:              item.ID,
			Title:           item.Title,
			Subject:         item.Subject,
			StudentID:       item.StudentID,
			StudentName:     item.Student.Name,
			TeacherID:       item.TeacherID,
			CurrentRevision: item.CurrentRevision,
			SubmittedAt:     item.SubmittedAt,
		})
	}
	return out
}
