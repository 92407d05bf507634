package models

import "time"

// Student owns assignments and the public portfolio page built from them.
// Slug is the optional public handle used in portfolio links.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Slug      string    `gorm:"size:128;index:idx_students_slug" json:"slug,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
