package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

var (
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrAssignmentAccessDenied hides whether a foreign assignment exists.
	ErrAssignmentAccessDenied = errors.New("assignment not found or access denied")
	// ErrAssignmentLocked indicates the assignment status forbids the change.
	ErrAssignmentLocked = errors.New("assignment can no longer be modified")
	// ErrInvalidTransition indicates the lifecycle does not allow the requested action.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStepIncomplete indicates required fields are missing.
	ErrStepIncomplete = errors.New("required fields are missing")
)

// StepIncompleteError lists the unmet requirements of a step.
type StepIncompleteError struct {
	Step    workflow.StepID
	Missing []string
}

func (e *StepIncompleteError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrStepIncomplete.Error(), e.Step, strings.Join(e.Missing, ", "))
}

// Is lets errors.Is match ErrStepIncomplete.
func (e *StepIncompleteError) Is(target error) bool {
	return target == ErrStepIncomplete
}

// Actor identifies the user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// IsReviewer reports whether the actor may review assignments.
func (a Actor) IsReviewer() bool {
	return a.Role == session.RoleTeacher || a.Role == session.RoleAdmin
}

// BlobStorage stores attachment binaries.
type BlobStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// DraftCanceller settles pending autosaves of an assignment.
type DraftCanceller interface {
	FlushPending(ctx context.Context, id uint) error
	Discard(ctx context.Context, id uint) error
	Forget(ctx context.Context, id uint) error
}

// AssignmentService manages the lifecycle of a student's portfolio assignments.
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	List(ctx context.Context, actor Actor, query dto.AssignmentListQuery) ([]dto.AssignmentSummary, dto.ListMeta, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	drafts    DraftCanceller
	storage   BlobStorage
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService constructs an AssignmentService. storage may be nil.
func NewAssignmentService(repo repository.AssignmentRepository, drafts DraftCanceller, storage BlobStorage, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		drafts:    drafts,
		storage:   storage,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		StudentID:       actor.ID,
		TeacherID:       payload.TeacherID,
		Title:           strings.TrimSpace(payload.Title),
		Subject:         strings.TrimSpace(payload.Subject),
		Grade:           strings.TrimSpace(payload.Grade),
		Month:           strings.TrimSpace(payload.Month),
		ArtifactType:    strings.TrimSpace(payload.ArtifactType),
		SelectedSkills:  datatypes.JSONSlice[string]{},
		RevisionHistory: datatypes.JSONSlice[models.RevisionEntry]{},
		VisitedSteps:    datatypes.JSONSlice[string]{},
		Status:          models.StatusDraft,
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("student_id", actor.ID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Get(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	assignment, err := loadVisible(ctx, s.repo, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	workflow.SortFeedbackNewestFirst(assignment.Feedback)
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) List(ctx context.Context, actor Actor, query dto.AssignmentListQuery) ([]dto.AssignmentSummary, dto.ListMeta, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.ListMeta{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	items, total, err := s.repo.ListByStudent(ctx, actor.ID, repository.AssignmentFilter{
		Status:   query.Status,
		Search:   query.Search,
		Sort:     query.Sort,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, dto.ListMeta{}, err
	}

	return dto.NewAssignmentSummarySlice(items), dto.ListMeta{Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	assignment, err := loadOwned(ctx, s.repo, actor, id)
	if err != nil {
		return err
	}
	if !workflow.CanDelete(assignment.Status) {
		return ErrAssignmentLocked
	}

	if s.drafts != nil {
		if err := s.drafts.Forget(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("failed to cancel pending autosave")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentAccessDenied
		}
		return err
	}

	if s.storage != nil {
		for _, file := range assignment.Files {
			if file.StorageKey == "" {
				continue
			}
			if err := s.storage.Delete(ctx, file.StorageKey); err != nil {
				s.logger.Warn().Err(err).Str("storage_key", file.StorageKey).Msg("failed to delete attachment blob")
			}
		}
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

// loadOwned returns the assignment if actor owns it. Missing and foreign
// assignments are indistinguishable to the caller.
func loadOwned(ctx context.Context, repo repository.AssignmentRepository, actor Actor, id uint) (models.Assignment, error) {
	assignment, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentAccessDenied
		}
		return models.Assignment{}, err
	}
	if !assignment.BelongsTo(actor.ID) {
		return models.Assignment{}, ErrAssignmentAccessDenied
	}
	return assignment, nil
}

// loadVisible returns the assignment for its owner or any reviewer.
func loadVisible(ctx context.Context, repo repository.AssignmentRepository, actor Actor, id uint) (models.Assignment, error) {
	if !actor.IsReviewer() {
		return loadOwned(ctx, repo, actor, id)
	}

	assignment, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}
