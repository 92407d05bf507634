package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
	"github.com/noah-isme/portfolio-go-api/internal/config"
	"github.com/noah-isme/portfolio-go-api/internal/database"
	"github.com/noah-isme/portfolio-go-api/internal/handler"
	"github.com/noah-isme/portfolio-go-api/internal/middleware"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/router"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/session"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
	cloud "github.com/noah-isme/portfolio-go-api/pkg/cloudinary"
	"github.com/noah-isme/portfolio-go-api/pkg/linkmeta"
	"github.com/noah-isme/portfolio-go-api/pkg/objectstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Attachment{}, &models.FeedbackItem{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	transports := service.NotificationTransports{
		Redis:        redisClient,
		RedisChannel: cfg.RedisChannel,
	}
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats relay disabled")
		} else {
			defer natsConn.Drain()
			transports.NATS = natsConn
			transports.NATSSubject = cfg.NATSSubject
		}
	}
	if cfg.AMQPURL != "" {
		amqpConn, amqpChannel, err := database.ConnectAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq relay disabled")
		} else {
			defer closeAMQP(amqpConn, amqpChannel)
			transports.AMQP = amqpChannel
			transports.AMQPExchange = cfg.AMQPExchange
		}
	}

	storage, err := newBlobStorage(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.StorageDriver).Msg("file storage unavailable, uploads disabled")
		storage = nil
	}

	sessions := session.NewStore(session.Options{
		Verifier: session.JWTVerifier(cfg.JWTSecret),
		Revoker:  session.RedisRevoker(redisClient, "portfolio:revoked:"),
		Logger:   logger,
	})
	initCtx, cancelInit := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sessions.Initialize(initCtx); err != nil {
		cancelInit()
		log.Fatalf("failed to initialize session store: %v", err)
	}
	cancelInit()
	defer sessions.Cleanup()

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, transports, logger)
	portfolioService := service.NewPortfolioService(assignmentRepo, studentRepo, redisClient, cfg.PortfolioCacheTTL, logger)
	draftService := service.NewDraftService(assignmentRepo, notificationService, validate, cfg.AutosaveDebounce, logger)
	defer draftService.Close()

	assignmentService := service.NewAssignmentService(assignmentRepo, draftService, storage, validate, logger)
	stepService := service.NewStepService(assignmentRepo, workflow.DefaultTable, validate, logger)
	reviewService := service.NewReviewService(service.ReviewDependencies{
		Assignments: assignmentRepo,
		Feedback:    feedbackRepo,
		Drafts:      draftService,
		Notifier:    notificationService,
		Portfolio:   portfolioService,
		Validator:   validate,
		Table:       workflow.DefaultTable,
		Logger:      logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		Assignments: assignmentRepo,
		Attachments: attachmentRepo,
		Storage:     storage,
		Fetcher:     linkmeta.New(cfg.LinkMetaTimeout, nil, logger),
		Progress:    service.NewUploadProgressStore(redisClient, logger),
		Policy:      attachment.Policy{MaxSize: cfg.UploadMaxBytes()},
		Validator:   validate,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes())*10 + 1024*1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.IsDevelopment(),
	})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, draftService, reviewService, logger),
		StepHandler:         handler.NewStepHandler(stepService, logger),
		AttachmentHandler:   handler.NewAttachmentHandler(attachmentService, cfg.UploadMaxBytes(), logger),
		ReviewHandler:       handler.NewReviewHandler(reviewService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		PortfolioHandler:    handler.NewPortfolioHandler(portfolioService, logger),
		AuthHandler:         handler.NewAuthHandler(sessions, logger),
		HealthProbes:        healthProbes(db, redisClient),
		AuthMiddleware:      middleware.Authenticate(sessions),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func newBlobStorage(cfg config.Config, logger zerolog.Logger) (service.BlobStorage, error) {
	if cfg.StorageDriver == config.StorageMinIO {
		return objectstore.New(objectstore.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			Region:    cfg.MinIORegion,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
		}, logger)
	}
	return cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	return map[string]handler.HealthProbe{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
}

func closeAMQP(conn *amqp.Connection, channel *amqp.Channel) {
	_ = channel.Close()
	_ = conn.Close()
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
