package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/autosave"
	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

// DraftService debounces autosaves of assignment form state.
type DraftService interface {
	DraftCanceller
	Schedule(ctx context.Context, actor Actor, id uint, payload dto.DraftRequest) (dto.DraftAcceptedResponse, error)
	Flush(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error)
	Close()
}

type draftService struct {
	repo        repository.AssignmentRepository
	notifier    Notifier
	validator   *validator.Validate
	coordinator *autosave.Coordinator[models.AssignmentDraft]
	logger      zerolog.Logger

	mu     sync.Mutex
	owners map[uint]uint
}

// NewDraftService wires an autosave coordinator to the assignment repository.
// notifier may be nil.
func NewDraftService(repo repository.AssignmentRepository, notifier Notifier, validate *validator.Validate, delay time.Duration, logger zerolog.Logger) DraftService {
	s := &draftService{
		repo:      repo,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "draft_service").Logger(),
		owners:    make(map[uint]uint),
	}
	s.coordinator = autosave.New(autosave.Options[models.AssignmentDraft]{
		Delay:   delay,
		Save:    repo.UpdateDraft,
		OnError: s.onSaveError,
		Logger:  logger,
	})
	return s
}

func (s *draftService) Schedule(ctx context.Context, actor Actor, id uint, payload dto.DraftRequest) (dto.DraftAcceptedResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DraftAcceptedResponse{}, err
	}

	assignment, err := loadOwned(ctx, s.repo, actor, id)
	if err != nil {
		return dto.DraftAcceptedResponse{}, err
	}
	if !workflow.IsEditable(assignment.Status) {
		return dto.DraftAcceptedResponse{}, ErrAssignmentLocked
	}

	s.mu.Lock()
	s.owners[id] = assignment.StudentID
	s.mu.Unlock()

	s.coordinator.Prime(id, models.DraftFromAssignment(assignment))
	s.coordinator.Schedule(id, payload.ToModel())

	return dto.DraftAcceptedResponse{AssignmentID: id, Pending: s.coordinator.Pending(id)}, nil
}

func (s *draftService) Flush(ctx context.Context, actor Actor, id uint) (dto.AssignmentResponse, error) {
	if _, err := loadOwned(ctx, s.repo, actor, id); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.FlushPending(ctx, id); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := loadOwned(ctx, s.repo, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	workflow.SortFeedbackNewestFirst(assignment.Feedback)
	return dto.NewAssignmentResponse(assignment), nil
}

// FlushPending writes any debounced edit of id without an ownership check.
func (s *draftService) FlushPending(ctx context.Context, id uint) error {
	if err := s.coordinator.Flush(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDraftLocked) {
			return ErrAssignmentLocked
		}
		return fmt.Errorf("flush draft: %w", err)
	}
	return nil
}

func (s *draftService) Discard(ctx context.Context, id uint) error {
	return s.coordinator.Discard(ctx, id)
}

func (s *draftService) Forget(ctx context.Context, id uint) error {
	s.mu.Lock()
	delete(s.owners, id)
	s.mu.Unlock()
	return s.coordinator.Forget(ctx, id)
}

func (s *draftService) Close() {
	s.coordinator.Close()
}

func (s *draftService) onSaveError(id uint, _ models.AssignmentDraft, err error) {
	if errors.Is(err, repository.ErrDraftLocked) {
		s.logger.Debug().Uint("assignment_id", id).Msg("dropped autosave for locked assignment")
		return
	}
	if s.notifier == nil {
		return
	}

	s.mu.Lock()
	owner, ok := s.owners[id]
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assignmentID := id
	notification := models.Notification{
		UserID:       strconv.FormatUint(uint64(owner), 10),
		Type:         models.NotificationAutosaveFailed,
		Message:      "Your latest changes could not be saved. We will retry on your next edit.",
		AssignmentID: &assignmentID,
	}
	if notifyErr := s.notifier.Notify(ctx, notification); notifyErr != nil {
		s.logger.Warn().Err(notifyErr).Uint("assignment_id", id).Msg("failed to send autosave failure notification")
	}
}
