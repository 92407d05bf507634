package dto

import (
	"time"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// NotificationListQuery paginates a user's inbox.
type NotificationListQuery struct {
	Limit      int  `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int  `query:"offset" validate:"omitempty,min=0"`
	UnreadOnly bool `query:"unread"`
}

// NotificationMeta accompanies a notification page.
type NotificationMeta struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID           uint      `json:"id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	AssignmentID *uint     `json:"assignment_id,omitempty"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		Type:         model.Type,
		Message:      model.Message,
		AssignmentID: model.AssignmentID,
		Read:         model.Read,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
