package models

import "time"

// Notification types emitted by the portfolio workflow.
const (
	NotificationAssignmentSubmitted = "assignment_submitted"
	NotificationAssignmentReviewed  = "assignment_reviewed"
	NotificationAutosaveFailed      = "autosave_failed"
)

// Notification is an in-app message targeted to a specific user.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:64;index" json:"user_id"`
	Type         string    `gorm:"size:64" json:"type"`
	Message      string    `gorm:"type:text" json:"message"`
	AssignmentID *uint     `gorm:"index" json:"assignment_id"`
	Read         bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
