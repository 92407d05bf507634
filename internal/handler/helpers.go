package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
	"github.com/noah-isme/portfolio-go-api/internal/middleware"
	"github.com/noah-isme/portfolio-go-api/internal/observability"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals(middleware.LocalUserID); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals(middleware.LocalUserRole); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func userIDStringFromContext(c *fiber.Ctx) string {
	if v := c.Locals(middleware.LocalUserID); v != nil {
		switch id := v.(type) {
		case uint:
			return strconv.FormatUint(uint64(id), 10)
		case int:
			if id < 0 {
				return ""
			}
			return strconv.Itoa(id)
		case string:
			return strings.TrimSpace(id)
		case fmt.Stringer:
			return strings.TrimSpace(id.String())
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

// requestContext carries the correlation id into the service layer.
func requestContext(c *fiber.Ctx) context.Context {
	return middleware.ContextWithCorrelation(c.UserContext(), middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := observability.Logger(requestContext(c), base)
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// respondError maps service errors to HTTP responses.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErrors validator.ValidationErrors
		incomplete       *service.StepIncompleteError
		rejected         *attachment.RejectedFilesError
	)

	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.As(err, &incomplete):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, service.ErrStepIncomplete.Error(), fiber.Map{
			"step":    incomplete.Step,
			"missing": incomplete.Missing,
		})
	case errors.As(err, &rejected):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, attachment.ErrInvalidFiles.Error(), fiber.Map{
			"rejected": rejected.Reasons,
		})
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrAssignmentAccessDenied),
		errors.Is(err, attachment.ErrAttachmentNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAssignmentLocked),
		errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFeedbackRequired),
		errors.Is(err, service.ErrChecklistIncomplete):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrReviewForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUnknownStep),
		errors.Is(err, attachment.ErrInvalidFiles),
		errors.Is(err, attachment.ErrInvalidLink):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, attachment.ErrLinkMetadata),
		errors.Is(err, attachment.ErrUploadFailed),
		errors.Is(err, attachment.ErrRemoveFailed):
		requestLogger(logger, c).Warn().Err(err).Msg("attachment operation failed")
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return internalError(c, logger, err)
	}
}

func internalError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	requestLogger(logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
