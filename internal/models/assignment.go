package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssignmentStatus is the lifecycle state of a portfolio assignment.
type AssignmentStatus string

const (
	StatusDraft         AssignmentStatus = "draft"
	StatusInProgress    AssignmentStatus = "in_progress"
	StatusOverdue       AssignmentStatus = "overdue"
	StatusSubmitted     AssignmentStatus = "submitted"
	StatusNeedsRevision AssignmentStatus = "needs_revision"
	StatusVerified      AssignmentStatus = "verified"
)

// Assignment is a student's multi-step portfolio submission.
type Assignment struct {
	ID                     uint                               `gorm:"primaryKey" json:"id"`
	StudentID              uint                               `gorm:"index;not null" json:"student_id"`
	TeacherID              *uint                              `gorm:"index" json:"teacher_id"`
	Title                  string                             `gorm:"size:255" json:"title"`
	Subject                string                             `gorm:"size:128" json:"subject"`
	Grade                  string                             `gorm:"size:32" json:"grade"`
	Month                  string                             `gorm:"size:32" json:"month"`
	ArtifactType           string                             `gorm:"size:64" json:"artifact_type"`
	IsTeamWork             bool                               `gorm:"not null;default:false" json:"is_team_work"`
	TeamContribution       string                             `gorm:"type:text" json:"team_contribution"`
	IsOriginalWork         bool                               `gorm:"not null;default:false" json:"is_original_work"`
	OriginalityExplanation string                             `gorm:"type:text" json:"originality_explanation"`
	SelectedSkills         datatypes.JSONSlice[string]        `gorm:"type:json" json:"selected_skills"`
	SkillsJustification    string                             `gorm:"type:text" json:"skills_justification"`
	CreationProcess        string                             `gorm:"type:text" json:"creation_process"`
	Learnings              string                             `gorm:"type:text" json:"learnings"`
	Challenges             string                             `gorm:"type:text" json:"challenges"`
	Improvements           string                             `gorm:"type:text" json:"improvements"`
	Acknowledgments        string                             `gorm:"type:text" json:"acknowledgments"`
	Status                 AssignmentStatus                   `gorm:"size:32;index;not null;default:draft" json:"status"`
	CurrentRevision        int                                `gorm:"not null;default:0" json:"current_revision"`
	RevisionHistory        datatypes.JSONSlice[RevisionEntry] `gorm:"type:json" json:"revision_history"`
	VisitedSteps           datatypes.JSONSlice[string]        `gorm:"type:json" json:"visited_steps"`
	SubmittedAt            *time.Time                         `json:"submitted_at"`
	VerifiedAt             *time.Time                         `json:"verified_at"`
	CreatedAt              time.Time                          `json:"created_at"`
	UpdatedAt              time.Time                          `json:"updated_at"`
	Student                Student                            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Files                  []Attachment                       `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	Feedback               []FeedbackItem                     `gorm:"constraint:OnDelete:CASCADE" json:"feedback"`
}

// TableName keeps portfolio rows separate from other assignment tables.
func (Assignment) TableName() string {
	return "portfolio_assignments"
}

// RevisionEntry records one lifecycle transition of an assignment.
type RevisionEntry struct {
	Revision  int              `json:"revision"`
	Status    AssignmentStatus `json:"status"`
	ActorID   uint             `json:"actor_id"`
	Timestamp time.Time        `json:"timestamp"`
}

// BelongsTo reports whether the assignment is owned by the student.
func (a Assignment) BelongsTo(studentID uint) bool {
	return studentID != 0 && a.StudentID == studentID
}

// HasTeacher reports whether a reviewing teacher is assigned.
func (a Assignment) HasTeacher() bool {
	return a.TeacherID != nil && *a.TeacherID != 0
}
