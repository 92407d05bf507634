package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/observability"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
)

// ErrNotificationNotFound indicates the notification does not exist for the user.
var ErrNotificationNotFound = errors.New("notification not found")

// Notifier delivers workflow notifications.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// NotificationService stores notifications and relays them to the configured brokers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID string, query dto.NotificationListQuery) ([]dto.NotificationResponse, dto.NotificationMeta, error)
	MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// NotificationTransports holds the optional relay targets. Nil clients are skipped.
type NotificationTransports struct {
	Redis        *redis.Client
	RedisChannel string
	NATS         *nats.Conn
	NATSSubject  string
	AMQP         *amqp.Channel
	AMQPExchange string
}

type notificationService struct {
	repo       repository.NotificationRepository
	transports NotificationTransports
	logger     zerolog.Logger
	tracer     trace.Tracer
	sanitizer  *bluemonday.Policy
	nodeID     string
	now        func() time.Time
}

type notificationEvent struct {
	Source        string                   `json:"source"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	Notification  dto.NotificationResponse `json:"notification"`
	SentAt        time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service.
func NewNotificationService(repo repository.NotificationRepository, transports NotificationTransports, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:       repo,
		transports: transports,
		logger:     logger.With().Str("component", "notification_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/portfolio-go-api/internal/service/notification"),
		sanitizer:  bluemonday.StrictPolicy(),
		nodeID:     uuid.NewString(),
		now:        time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, notification models.Notification) error {
	notification.Message = strings.TrimSpace(s.sanitizer.Sanitize(notification.Message))
	if notification.Message == "" {
		return errors.New("notification message empty after sanitization")
	}
	if strings.TrimSpace(notification.UserID) == "" {
		return errors.New("notification recipient is required")
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.String("notification.user_id", notification.UserID),
		attribute.String("notification.type", notification.Type),
	))
	defer span.End()

	if err := s.repo.Create(spanCtx, &notification); err != nil {
		span.RecordError(err)
		return err
	}

	s.relay(spanCtx, dto.NewNotificationResponse(notification))
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string, query dto.NotificationListQuery) ([]dto.NotificationResponse, dto.NotificationMeta, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dto.NotificationMeta{}, errors.New("user id is required")
	}

	notifications, total, err := s.repo.List(ctx, repository.NotificationFilter{
		UserID:     userID,
		UnreadOnly: query.UnreadOnly,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, dto.NotificationMeta{}, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, dto.NotificationMeta{}, err
	}

	return dto.NewNotificationResponseSlice(notifications), dto.NotificationMeta{
		Total:  total,
		Unread: unread,
		Limit:  query.Limit,
		Offset: query.Offset,
	}, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("user id is required")
	}

	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Str("user_id", userID).Int64("updated", updated).Msg("notifications marked read")
	return updated, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.String("notification.user_id", userID),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

// relay fans the stored notification out to every configured broker. Broker
// failures are logged; the notification is already persisted.
func (s *notificationService) relay(ctx context.Context, notification dto.NotificationResponse) {
	payload, err := json.Marshal(notificationEvent{
		Source:        s.nodeID,
		CorrelationID: observability.CorrelationID(ctx),
		Notification:  notification,
		SentAt:        s.now().UTC(),
	})
	if err != nil {
		logger := observability.Logger(ctx, s.logger)
		logger.Warn().Err(err).Msg("failed to encode notification event")
		return
	}

	t := s.transports
	if t.Redis != nil && t.RedisChannel != "" {
		s.record("redis", t.Redis.Publish(ctx, t.RedisChannel, payload).Err())
	}
	if t.NATS != nil && t.NATSSubject != "" {
		s.record("nats", t.NATS.Publish(t.NATSSubject, payload))
	}
	if t.AMQP != nil && t.AMQPExchange != "" {
		publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := t.AMQP.PublishWithContext(publishCtx, t.AMQPExchange, "notification."+notification.Type, false, false, amqp.Publishing{
			ContentType:   "application/json",
			Body:          payload,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     s.now(),
			CorrelationId: observability.CorrelationID(ctx),
		})
		cancel()
		s.record("amqp", err)
	}
}

func (s *notificationService) record(transport string, err error) {
	if err != nil {
		observability.NotificationsPublished().WithLabelValues(transport, "error").Inc()
		s.logger.Warn().Err(err).Str("transport", transport).Msg("failed to relay notification")
		return
	}
	observability.NotificationsPublished().WithLabelValues(transport, "success").Inc()
}
