package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// StudentRepository resolves portfolio owners.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetBySlug(ctx context.Context, slug string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	return student, err
}

// GetBySlug matches slugs case-insensitively. Blank slugs never match.
func (r *studentRepository) GetBySlug(ctx context.Context, slug string) (models.Student, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return models.Student{}, gorm.ErrRecordNotFound
	}

	var student models.Student
	err := r.db.WithContext(ctx).Where("LOWER(slug) = ?", slug).Order("id ASC").First(&student).Error
	return student, err
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	student.Slug = strings.ToLower(strings.TrimSpace(student.Slug))
	return r.db.WithContext(ctx).Create(student).Error
}
