package dto

import (
	"time"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// AddLinkRequest attaches an external link.
type AddLinkRequest struct {
	URL                    string `json:"url" validate:"required,url,max=1024"`
	IsProcessDocumentation bool   `json:"is_process_documentation"`
}

// AttachmentResponse is the serialized attachment.
type AttachmentResponse struct {
	ID                     uint      `json:"id"`
	Kind                   string    `json:"kind"`
	URL                    string    `json:"url"`
	Name                   string    `json:"name"`
	Type                   string    `json:"type"`
	Size                   int64     `json:"size"`
	IsProcessDocumentation bool      `json:"is_process_documentation"`
	Position               int       `json:"position"`
	CreatedAt              time.Time `json:"created_at"`
}

// NewAttachmentResponse converts a model into a DTO.
func NewAttachmentResponse(model models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:                     model.ID,
		Kind:                   string(model.Kind),
		URL:                    model.URL,
		Name:                   model.Name,
		Type:                   model.Type,
		Size:                   model.Size,
		IsProcessDocumentation: model.IsProcessDocumentation,
		Position:               model.Position,
		CreatedAt:              model.CreatedAt,
	}
}

// AttachmentListResponse is the attachment list after a mutation.
type AttachmentListResponse struct {
	AssignmentID uint                 `json:"assignment_id"`
	Added        []AttachmentResponse `json:"added,omitempty"`
	Attachments  []AttachmentResponse `json:"attachments"`
}

// UploadProgressResponse lists the progress of in-flight uploads.
type UploadProgressResponse struct {
	AssignmentID uint               `json:"assignment_id"`
	Uploads      map[string]float64 `json:"uploads"`
}
