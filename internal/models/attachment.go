package models

import "time"

// AttachmentKind distinguishes uploaded files from external links.
type AttachmentKind string

const (
	AttachmentKindFile AttachmentKind = "file"
	AttachmentKindLink AttachmentKind = "link"
)

// Attachment is an uploaded file or external link owned by one assignment.
type Attachment struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	AssignmentID           uint           `gorm:"index;not null" json:"assignment_id"`
	Kind                   AttachmentKind `gorm:"size:16;not null" json:"kind"`
	URL                    string         `gorm:"size:1024;not null" json:"url"`
	Name                   string         `gorm:"size:255" json:"name"`
	Type                   string         `gorm:"size:64" json:"type"`
	Size                   int64          `gorm:"not null;default:0" json:"size"`
	IsProcessDocumentation bool           `gorm:"not null;default:false" json:"is_process_documentation"`
	Position               int            `gorm:"not null;default:0" json:"position"`
	StorageKey             string         `gorm:"size:512" json:"-"`
	CreatedAt              time.Time      `json:"created_at"`
}

// TableName binds the model to its table.
func (Attachment) TableName() string {
	return "portfolio_attachments"
}

// IsLink reports whether the attachment points to an external resource.
func (a Attachment) IsLink() bool {
	return a.Kind == AttachmentKindLink
}
