package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

// ErrUnknownStep indicates a step id outside the step table.
var ErrUnknownStep = errors.New("unknown step")

// StepService exposes step validation and navigation for an assignment.
type StepService interface {
	Evaluate(ctx context.Context, actor Actor, id uint) (dto.StepsResponse, error)
	Navigate(ctx context.Context, actor Actor, id uint, payload dto.NavigateRequest) (dto.NavigateResponse, error)
}

type stepService struct {
	repo      repository.AssignmentRepository
	table     workflow.Table
	validator workflow.Validator
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewStepService constructs a StepService over table.
func NewStepService(repo repository.AssignmentRepository, table workflow.Table, validate *validator.Validate, logger zerolog.Logger) StepService {
	return &stepService{
		repo:      repo,
		table:     table,
		validator: workflow.NewValidator(table),
		validate:  validate,
		logger:    logger.With().Str("component", "step_service").Logger(),
	}
}

func (s *stepService) Evaluate(ctx context.Context, actor Actor, id uint) (dto.StepsResponse, error) {
	assignment, err := loadVisible(ctx, s.repo, actor, id)
	if err != nil {
		return dto.StepsResponse{}, err
	}

	form := workflow.FormFromAssignment(assignment)
	visits := workflow.NewVisits(assignment.VisitedSteps...)
	// Reachability probes use their own navigator so they do not count as visits.
	probe := workflow.NewNavigator(s.table, nil)

	steps := s.table.Steps()
	response := dto.StepsResponse{
		AssignmentID: assignment.ID,
		Status:       string(assignment.Status),
		Frozen:       workflow.IsFrozen(assignment.Status),
		Steps:        make([]dto.StepStatus, 0, len(steps)),
	}

	first := s.table.First()
	for index, step := range steps {
		missing := s.validator.Missing(step.ID, form)
		if missing == nil {
			missing = []string{}
		}
		response.Steps = append(response.Steps, dto.StepStatus{
			ID:        string(step.ID),
			Title:     step.Title,
			Index:     index,
			Valid:     s.validator.Validate(step.ID, form),
			Visited:   visits.Visited(step.ID),
			Reachable: s.reachable(probe, step.ID, first, form),
			Missing:   missing,
		})
	}

	return response, nil
}

func (s *stepService) reachable(probe *workflow.Navigator, target, first workflow.StepID, form workflow.FormData) bool {
	if target == first && !workflow.IsFrozen(form.Status) {
		return true
	}
	previous, ok := s.table.Previous(target)
	if !ok {
		previous = target
	}
	return probe.CanNavigate(target, previous, form)
}

func (s *stepService) Navigate(ctx context.Context, actor Actor, id uint, payload dto.NavigateRequest) (dto.NavigateResponse, error) {
	if err := s.validate.Struct(payload); err != nil {
		return dto.NavigateResponse{}, err
	}

	current, ok := workflow.ParseStepID(payload.Current)
	if !ok {
		return dto.NavigateResponse{}, fmt.Errorf("%w: %s", ErrUnknownStep, payload.Current)
	}

	assignment, err := loadOwned(ctx, s.repo, actor, id)
	if err != nil {
		return dto.NavigateResponse{}, err
	}

	if payload.Draft != nil && workflow.IsEditable(assignment.Status) {
		payload.Draft.ToModel().Apply(&assignment)
	}
	form := workflow.FormFromAssignment(assignment)

	visits := workflow.NewVisits(assignment.VisitedSteps...)
	before := len(visits.List())
	navigator := workflow.NewNavigator(s.table, visits)

	response := dto.NavigateResponse{From: string(current)}
	switch payload.Direction {
	case "next":
		to, allowed := navigator.Next(current, form)
		response.To, response.Allowed = string(to), allowed
	case "previous":
		to, allowed := navigator.Previous(current)
		response.To, response.Allowed = string(to), allowed
	default:
		target, ok := workflow.ParseStepID(payload.Target)
		if !ok {
			return dto.NavigateResponse{}, fmt.Errorf("%w: %s", ErrUnknownStep, payload.Target)
		}
		response.To = string(target)
		response.Allowed = navigator.CanNavigate(target, current, form)
	}

	if !response.Allowed {
		response.Missing = s.blocking(current, form)
		if response.To == "" {
			response.To = string(current)
		}
	}

	response.Visited = visits.List()
	if len(response.Visited) != before {
		if err := s.repo.SaveVisitedSteps(ctx, id, response.Visited); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("failed to persist visited steps")
		}
	}

	return response, nil
}

// blocking reports the first unmet requirements up to and including current.
func (s *stepService) blocking(current workflow.StepID, form workflow.FormData) []string {
	if workflow.IsFrozen(form.Status) {
		return nil
	}
	for _, step := range s.table.Steps() {
		if missing := s.validator.Missing(step.ID, form); len(missing) > 0 {
			return missing
		}
		if step.ID == current {
			break
		}
	}
	return nil
}
