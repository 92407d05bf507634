package dto

import "time"

// PortfolioResponse is the public page of a student's verified work.
type PortfolioResponse struct {
	StudentID   uint            `json:"student_id"`
	StudentName string          `json:"student_name"`
	Items       []PortfolioItem `json:"items"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// PortfolioItem is one verified assignment.
type PortfolioItem struct {
	ID                  uint                 `json:"id"`
	Title               string               `json:"title"`
	Subject             string               `json:"subject"`
	Grade               string               `json:"grade"`
	Month               string               `json:"month"`
	ArtifactType        string               `json:"artifact_type"`
	SelectedSkills      []string             `json:"selected_skills"`
	SkillsJustification string               `json:"skills_justification"`
	CreationProcess     string               `json:"creation_process"`
	Learnings           string               `json:"learnings"`
	Attachments         []AttachmentResponse `json:"attachments"`
	VerifiedAt          *time.Time           `json:"verified_at"`
}
