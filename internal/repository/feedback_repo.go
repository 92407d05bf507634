package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// FeedbackRepository reads teacher feedback. Entries are append-only and are
// written together with the review transition by AssignmentRepository.SaveReview.
type FeedbackRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.FeedbackItem, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository constructs a GORM-backed feedback repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.FeedbackItem, error) {
	var items []models.FeedbackItem
	if err := r.db.WithContext(ctx).Where("assignment_id = ?", assignmentID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
