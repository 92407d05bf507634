package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewDecision is the outcome of one teacher review pass.
type ReviewDecision string

const (
	DecisionApproved      ReviewDecision = "approved"
	DecisionNeedsRevision ReviewDecision = "needs_revision"
)

// QuestionComment is a teacher remark on a single form question.
type QuestionComment struct {
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
	TeacherID uint      `json:"teacher_id"`
}

// FeedbackItem is one immutable teacher review pass.
type FeedbackItem struct {
	ID                  uint                                           `gorm:"primaryKey" json:"id"`
	AssignmentID        uint                                           `gorm:"index;not null" json:"assignment_id"`
	TeacherID           uint                                           `gorm:"index;not null" json:"teacher_id"`
	Decision            ReviewDecision                                 `gorm:"size:32;not null" json:"decision"`
	Comment             string                                         `gorm:"type:text;not null" json:"comment"`
	SelectedSkills      datatypes.JSONSlice[string]                    `gorm:"type:json" json:"selected_skills"`
	SkillsJustification string                                         `gorm:"type:text" json:"skills_justification"`
	QuestionComments    datatypes.JSONType[map[string]QuestionComment] `gorm:"type:json" json:"question_comments"`
	CreatedAt           time.Time                                      `json:"created_at"`
}

// TableName binds the model to its table.
func (FeedbackItem) TableName() string {
	return "portfolio_feedback"
}
