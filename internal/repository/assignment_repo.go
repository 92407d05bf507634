package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

// ErrDraftLocked is returned when a draft write targets an assignment that is no longer editable.
var ErrDraftLocked = errors.New("assignment is not editable")

// AssignmentFilter describes pagination & search options.
type AssignmentFilter struct {
	Status   string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// AssignmentRepository defines persistence operations for portfolio assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	ListByStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, int64, error)
	ListReviewQueue(ctx context.Context, teacherID uint) ([]models.Assignment, error)
	ListVerifiedByStudent(ctx context.Context, studentID uint) ([]models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error
	UpdateDraft(ctx context.Context, id uint, draft models.AssignmentDraft) error
	SaveVisitedSteps(ctx context.Context, id uint, steps []string) error
	SaveReview(ctx context.Context, assignment *models.Assignment, feedback *models.FeedbackItem) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.withDetails(r.db.WithContext(ctx)).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("student_id = ?", studentID)

	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(subject) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeAssignmentSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var assignments []models.Assignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) ListReviewQueue(ctx context.Context, teacherID uint) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("status = ?", models.StatusSubmitted)
	if teacherID != 0 {
		query = query.Where("teacher_id = ? OR teacher_id IS NULL", teacherID)
	}

	var assignments []models.Assignment
	if err := query.Order("submitted_at ASC, id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) ListVerifiedByStudent(ctx context.Context, studentID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("student_id = ? AND status = ?", studentID, models.StatusVerified).
		Order("verified_at DESC, id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(assignment).Error
}

// UpdateDraft writes the editable columns only while the assignment is still editable.
// The first write of a fresh draft moves it to in_progress.
func (r *assignmentRepository) UpdateDraft(ctx context.Context, id uint, draft models.AssignmentDraft) error {
	columns := draft.Columns()
	columns["status"] = gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END", models.StatusDraft, models.StatusInProgress)

	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status IN ?", id, workflow.EditableStatuses()).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrDraftLocked
}

func (r *assignmentRepository) SaveVisitedSteps(ctx context.Context, id uint, steps []string) error {
	var visited models.Assignment
	visited.VisitedSteps = append(visited.VisitedSteps, steps...)
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("visited_steps", visited.VisitedSteps).Error
}

// SaveReview persists the reviewed assignment and its new feedback entry atomically.
func (r *assignmentRepository) SaveReview(ctx context.Context, assignment *models.Assignment, feedback *models.FeedbackItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&models.Assignment{}).
			Where("id = ? AND status = ?", assignment.ID, models.StatusSubmitted).
			Omit(clause.Associations).
			Select("*").
			Updates(assignment)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrDraftLocked
		}

		feedback.AssignmentID = assignment.ID
		return tx.Create(feedback).Error
	})
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", id).Delete(&models.FeedbackItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *assignmentRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Feedback")
}

func normalizeAssignmentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "updated_at", "updated_at:asc", "updated_at.asc":
		return "updated_at ASC"
	case "title", "title:asc", "title.asc":
		return "title ASC"
	case "-title", "title:desc", "title.desc":
		return "title DESC"
	case "created_at", "created_at:asc", "created_at.asc":
		return "created_at ASC"
	case "-created_at", "created_at:desc", "created_at.desc":
		return "created_at DESC"
	default:
		return "updated_at DESC"
	}
}
