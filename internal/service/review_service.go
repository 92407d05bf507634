package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/observability"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

var (
	// ErrFeedbackRequired indicates a review without a comment.
	ErrFeedbackRequired = errors.New("feedback comment is required")
	// ErrChecklistIncomplete indicates an approval before the review checklist was completed.
	ErrChecklistIncomplete = errors.New("review checklist must be completed before approval")
	// ErrReviewForbidden indicates the actor may not review the assignment.
	ErrReviewForbidden = errors.New("not allowed to review this assignment")
)

// PortfolioInvalidator drops cached public portfolio pages.
type PortfolioInvalidator interface {
	Invalidate(ctx context.Context, studentID uint) error
}

// ReviewService drives submission and teacher review of assignments.
type ReviewService interface {
	Submit(ctx context.Context, actor Actor, id uint, payload dto.SubmitAssignmentRequest) (dto.SubmitResponse, error)
	Review(ctx context.Context, actor Actor, id uint, payload dto.ReviewRequest) (dto.ReviewResponse, error)
	Feedback(ctx context.Context, actor Actor, id uint) ([]dto.FeedbackResponse, error)
	Queue(ctx context.Context, actor Actor) ([]dto.ReviewQueueItem, error)
}

// ReviewDependencies bundles the collaborators of the review service.
type ReviewDependencies struct {
	Assignments repository.AssignmentRepository
	Feedback    repository.FeedbackRepository
	Drafts      DraftCanceller
	Notifier    Notifier
	Portfolio   PortfolioInvalidator
	Validator   *validator.Validate
	Table       workflow.Table
	Logger      zerolog.Logger
}

type reviewService struct {
	assignments repository.AssignmentRepository
	feedback    repository.FeedbackRepository
	drafts      DraftCanceller
	notifier    Notifier
	portfolio   PortfolioInvalidator
	validator   *validator.Validate
	steps       workflow.Validator
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReviewService constructs the submission/review orchestrator.
func NewReviewService(deps ReviewDependencies) ReviewService {
	return &reviewService{
		assignments: deps.Assignments,
		feedback:    deps.Feedback,
		drafts:      deps.Drafts,
		notifier:    deps.Notifier,
		portfolio:   deps.Portfolio,
		validator:   deps.Validator,
		steps:       workflow.NewValidator(deps.Table),
		logger:      deps.Logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/portfolio-go-api/internal/service/review"),
		now:         time.Now,
	}
}

func (s *reviewService) Submit(ctx context.Context, actor Actor, id uint, payload dto.SubmitAssignmentRequest) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.submit")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(id)),
		attribute.Int64("assignment.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitResponse{}, err
	}

	assignment, err := loadOwned(ctx, s.assignments, actor, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.SubmitResponse{}, err
	}

	from := assignment.Status
	to, ok := workflow.Transition(from, workflow.ActionSubmit)
	if !ok {
		span.SetStatus(codes.Error, "invalid_transition")
		if workflow.IsFrozen(from) {
			return dto.SubmitResponse{}, ErrAssignmentLocked
		}
		return dto.SubmitResponse{}, ErrInvalidTransition
	}

	if payload.Draft != nil {
		if s.drafts != nil {
			if err := s.drafts.Discard(ctx, id); err != nil {
				span.RecordError(err)
				return dto.SubmitResponse{}, fmt.Errorf("discard pending autosave: %w", err)
			}
		}
		payload.Draft.ToModel().Apply(&assignment)
	} else if s.drafts != nil {
		// the stored row must include the last debounced edit before validation
		if err := s.drafts.FlushPending(ctx, id); err != nil {
			span.RecordError(err)
			return dto.SubmitResponse{}, err
		}
		if assignment, err = loadOwned(ctx, s.assignments, actor, id); err != nil {
			span.RecordError(err)
			return dto.SubmitResponse{}, err
		}
	}

	form := workflow.FormFromAssignment(assignment)
	if missing := s.steps.Missing(workflow.StepReviewSubmit, form); len(missing) > 0 {
		span.SetStatus(codes.Error, "step_incomplete")
		return dto.SubmitResponse{}, &StepIncompleteError{Step: workflow.StepReviewSubmit, Missing: missing}
	}

	now := s.now().UTC()
	assignment.Status = to
	assignment.SubmittedAt = &now
	assignment.CurrentRevision++
	assignment.RevisionHistory = append(assignment.RevisionHistory, models.RevisionEntry{
		Revision:  assignment.CurrentRevision,
		Status:    to,
		ActorID:   actor.ID,
		Timestamp: now,
	})

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_update_failed")
		return dto.SubmitResponse{}, err
	}
	observability.ReviewTransitions().WithLabelValues(string(from), string(to)).Inc()

	if s.drafts != nil {
		// the submitted content replaces whatever the autosaver last wrote
		if err := s.drafts.Forget(ctx, id); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("failed to reset autosave state")
		}
	}

	s.logger.Info().
		Uint("assignment_id", id).
		Int("revision", assignment.CurrentRevision).
		Str("from", string(from)).
		Msg("assignment submitted")

	response := dto.SubmitResponse{}
	if assignment.HasTeacher() {
		message := fmt.Sprintf("%s was submitted for review (revision %d).", displayTitle(assignment), assignment.CurrentRevision)
		if warning := s.notify(ctx, *assignment.TeacherID, models.NotificationAssignmentSubmitted, message, id); warning != "" {
			response.Warning = warning
		}
	}

	workflow.SortFeedbackNewestFirst(assignment.Feedback)
	response.Assignment = dto.NewAssignmentResponse(assignment)
	return response, nil
}

func (s *reviewService) Review(ctx context.Context, actor Actor, id uint, payload dto.ReviewRequest) (dto.ReviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.review")
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(id)),
		attribute.Int64("assignment.actor_id", int64(actor.ID)),
		attribute.String("review.decision", payload.Decision),
	)
	defer span.End()

	if !actor.IsReviewer() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ReviewResponse{}, ErrReviewForbidden
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReviewResponse{}, err
	}

	decision := models.ReviewDecision(payload.Decision)
	comment := strings.TrimSpace(payload.Comment)
	if comment == "" {
		span.SetStatus(codes.Error, "feedback_required")
		return dto.ReviewResponse{}, ErrFeedbackRequired
	}
	if decision == models.DecisionApproved && !payload.ChecklistComplete {
		span.SetStatus(codes.Error, "checklist_incomplete")
		return dto.ReviewResponse{}, ErrChecklistIncomplete
	}

	assignment, err := loadVisible(ctx, s.assignments, actor, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.ReviewResponse{}, err
	}

	if assignment.HasTeacher() && *assignment.TeacherID != actor.ID && actor.Role != session.RoleAdmin {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ReviewResponse{}, ErrReviewForbidden
	}

	action := workflow.ActionRequestRevise
	if decision == models.DecisionApproved {
		action = workflow.ActionApprove
	}
	from := assignment.Status
	to, ok := workflow.Transition(from, action)
	if !ok {
		span.SetStatus(codes.Error, "invalid_transition")
		return dto.ReviewResponse{}, ErrInvalidTransition
	}

	now := s.now().UTC()
	if !assignment.HasTeacher() {
		teacherID := actor.ID
		assignment.TeacherID = &teacherID
	}
	assignment.Status = to
	if to == models.StatusVerified {
		assignment.VerifiedAt = &now
	}
	assignment.RevisionHistory = append(assignment.RevisionHistory, models.RevisionEntry{
		Revision:  assignment.CurrentRevision,
		Status:    to,
		ActorID:   actor.ID,
		Timestamp: now,
	})

	item := models.FeedbackItem{
		AssignmentID:        assignment.ID,
		TeacherID:           actor.ID,
		Decision:            decision,
		Comment:             comment,
		SelectedSkills:      datatypes.JSONSlice[string](append([]string{}, payload.SelectedSkills...)),
		SkillsJustification: strings.TrimSpace(payload.SkillsJustification),
		QuestionComments:    datatypes.NewJSONType(questionComments(payload.QuestionComments, actor.ID, now)),
		CreatedAt:           now,
	}

	if err := s.assignments.SaveReview(ctx, &assignment, &item); err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrDraftLocked) {
			span.SetStatus(codes.Error, "invalid_transition")
			return dto.ReviewResponse{}, ErrInvalidTransition
		}
		span.SetStatus(codes.Error, "review_persist_failed")
		return dto.ReviewResponse{}, err
	}
	observability.ReviewTransitions().WithLabelValues(string(from), string(to)).Inc()

	assignment.Feedback = append([]models.FeedbackItem{item}, assignment.Feedback...)
	workflow.SortFeedbackNewestFirst(assignment.Feedback)

	s.logger.Info().
		Uint("assignment_id", id).
		Uint("teacher_id", actor.ID).
		Str("decision", string(decision)).
		Msg("assignment reviewed")

	response := dto.ReviewResponse{
		Assignment: dto.NewAssignmentResponse(assignment),
		Feedback:   dto.NewFeedbackResponseSlice(assignment.Feedback),
	}

	message := fmt.Sprintf("%s needs revision: %s", displayTitle(assignment), comment)
	if to == models.StatusVerified {
		message = fmt.Sprintf("%s was approved and added to your portfolio.", displayTitle(assignment))
	}
	response.Warning = s.notify(ctx, assignment.StudentID, models.NotificationAssignmentReviewed, message, id)

	if to == models.StatusVerified && s.portfolio != nil {
		if err := s.portfolio.Invalidate(ctx, assignment.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", assignment.StudentID).Msg("failed to invalidate portfolio cache")
		}
	}

	return response, nil
}

func (s *reviewService) Feedback(ctx context.Context, actor Actor, id uint) ([]dto.FeedbackResponse, error) {
	assignment, err := loadVisible(ctx, s.assignments, actor, id)
	if err != nil {
		return nil, err
	}

	items, err := s.feedback.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	workflow.SortFeedbackNewestFirst(items)
	return dto.NewFeedbackResponseSlice(items), nil
}

func (s *reviewService) Queue(ctx context.Context, actor Actor) ([]dto.ReviewQueueItem, error) {
	if !actor.IsReviewer() {
		return nil, ErrReviewForbidden
	}

	teacherID := actor.ID
	if actor.Role == session.RoleAdmin {
		teacherID = 0
	}
	items, err := s.assignments.ListReviewQueue(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewReviewQueueSlice(items), nil
}

// notify delivers a best-effort notification and returns a warning for the
// response when delivery failed.
func (s *reviewService) notify(ctx context.Context, userID uint, kind, message string, assignmentID uint) string {
	if s.notifier == nil {
		return ""
	}
	err := s.notifier.Notify(ctx, models.Notification{
		UserID:       strconv.FormatUint(uint64(userID), 10),
		Type:         kind,
		Message:      message,
		AssignmentID: &assignmentID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Str("type", kind).Msg("notification delivery failed")
		return "notification could not be delivered"
	}
	return ""
}

func questionComments(raw map[string]string, teacherID uint, at time.Time) map[string]models.QuestionComment {
	out := make(map[string]models.QuestionComment, len(raw))
	for question, comment := range raw {
		trimmed := strings.TrimSpace(comment)
		if trimmed == "" {
			continue
		}
		out[question] = models.QuestionComment{Comment: trimmed, Timestamp: at, TeacherID: teacherID}
	}
	return out
}

func displayTitle(assignment models.Assignment) string {
	if title := strings.TrimSpace(assignment.Title); title != "" {
		return title
	}
	return fmt.Sprintf("Assignment #%d", assignment.ID)
}
