package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
)

// ErrStudentNotFound indicates the portfolio owner does not exist.
var ErrStudentNotFound = errors.New("student not found")

// PortfolioService renders the public page of a student's verified work.
type PortfolioService interface {
	PortfolioInvalidator
	Get(ctx context.Context, studentID uint) (dto.PortfolioResponse, error)
	GetBySlug(ctx context.Context, slug string) (dto.PortfolioResponse, error)
}

type portfolioService struct {
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPortfolioService constructs a PortfolioService. cache may be nil.
func NewPortfolioService(assignments repository.AssignmentRepository, students repository.StudentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) PortfolioService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &portfolioService{
		assignments: assignments,
		students:    students,
		cache:       cache,
		cacheTTL:    ttl,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "portfolio_service").Logger(),
		now:         time.Now,
	}
}

func portfolioCacheKey(studentID uint) string {
	return fmt.Sprintf("portfolio:student:%d", studentID)
}

func (s *portfolioService) Get(ctx context.Context, studentID uint) (dto.PortfolioResponse, error) {
	cacheKey := portfolioCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.PortfolioResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("portfolio cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read portfolio cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioResponse{}, ErrStudentNotFound
		}
		return dto.PortfolioResponse{}, err
	}

	assignments, err := s.assignments.ListVerifiedByStudent(ctx, studentID)
	if err != nil {
		return dto.PortfolioResponse{}, err
	}

	response := dto.PortfolioResponse{
		StudentID:   student.ID,
		StudentName: s.policy.Sanitize(student.Name),
		Items:       make([]dto.PortfolioItem, 0, len(assignments)),
		GeneratedAt: s.now().UTC(),
	}
	for _, assignment := range assignments {
		response.Items = append(response.Items, s.item(assignment))
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store portfolio cache")
			}
		}
	}

	return response, nil
}

func (s *portfolioService) GetBySlug(ctx context.Context, slug string) (dto.PortfolioResponse, error) {
	student, err := s.students.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PortfolioResponse{}, ErrStudentNotFound
		}
		return dto.PortfolioResponse{}, err
	}
	return s.Get(ctx, student.ID)
}

func (s *portfolioService) Invalidate(ctx context.Context, studentID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, portfolioCacheKey(studentID)).Err()
}

func (s *portfolioService) item(assignment models.Assignment) dto.PortfolioItem {
	skills := make([]string, 0, len(assignment.SelectedSkills))
	for _, skill := range assignment.SelectedSkills {
		skills = append(skills, s.policy.Sanitize(skill))
	}

	attachments := make([]dto.AttachmentResponse, 0, len(assignment.Files))
	for _, file := range assignment.Files {
		attachments = append(attachments, dto.NewAttachmentResponse(file))
	}

	return dto.PortfolioItem{
		ID:                  assignment.ID,
		Title:               s.policy.Sanitize(assignment.Title),
		Subject:             s.policy.Sanitize(assignment.Subject),
		Grade:               s.policy.Sanitize(assignment.Grade),
		Month:               s.policy.Sanitize(assignment.Month),
		ArtifactType:        assignment.ArtifactType,
		SelectedSkills:      skills,
		SkillsJustification: s.policy.Sanitize(assignment.SkillsJustification),
		CreationProcess:     s.policy.Sanitize(assignment.CreationProcess),
		Learnings:           s.policy.Sanitize(assignment.Learnings),
		Attachments:         attachments,
		VerifiedAt:          assignment.VerifiedAt,
	}
}
