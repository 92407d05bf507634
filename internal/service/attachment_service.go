package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/observability"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

// ErrStorageUnavailable indicates no blob storage driver is configured.
var ErrStorageUnavailable = errors.New("file storage is not configured")

// AttachmentService manages the files and links of an assignment.
type AttachmentService interface {
	UploadFiles(ctx context.Context, actor Actor, id uint, files []attachment.File) (dto.AttachmentListResponse, error)
	AddLink(ctx context.Context, actor Actor, id uint, payload dto.AddLinkRequest) (dto.AttachmentListResponse, error)
	Remove(ctx context.Context, actor Actor, id, attachmentID uint, index int) (dto.AttachmentListResponse, error)
	Progress(ctx context.Context, actor Actor, id uint) (dto.UploadProgressResponse, error)
}

// AttachmentDependencies bundles the collaborators of the attachment service.
type AttachmentDependencies struct {
	Assignments repository.AssignmentRepository
	Attachments repository.AttachmentRepository
	Storage     BlobStorage
	Fetcher     attachment.MetadataFetcher
	Progress    UploadProgressStore
	Policy      attachment.Policy
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

type attachmentService struct {
	assignments repository.AssignmentRepository
	attachments repository.AttachmentRepository
	storage     BlobStorage
	fetcher     attachment.MetadataFetcher
	progress    UploadProgressStore
	policy      attachment.Policy
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(deps AttachmentDependencies) AttachmentService {
	progress := deps.Progress
	if progress == nil {
		progress = NewUploadProgressStore(nil, deps.Logger)
	}
	return &attachmentService{
		assignments: deps.Assignments,
		attachments: deps.Attachments,
		storage:     deps.Storage,
		fetcher:     deps.Fetcher,
		progress:    progress,
		policy:      deps.Policy,
		validator:   deps.Validator,
		logger:      deps.Logger.With().Str("component", "attachment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/portfolio-go-api/internal/service/attachment"),
	}
}

func (s *attachmentService) UploadFiles(ctx context.Context, actor Actor, id uint, files []attachment.File) (dto.AttachmentListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attachment.upload_batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("assignment.id", int64(id)),
		attribute.Int("upload.batch_size", len(files)),
		attribute.Int64("upload.max_bytes", s.policy.MaxSize),
	)

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if s.storage == nil {
		span.SetStatus(codes.Error, "storage_unavailable")
		return dto.AttachmentListResponse{}, ErrStorageUnavailable
	}

	assignment, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		return dto.AttachmentListResponse{}, err
	}

	manager := s.manager(assignment)
	added, err := manager.AddFiles(ctx, files)
	if err != nil {
		span.RecordError(err)
		var rejected *attachment.RejectedFilesError
		if errors.As(err, &rejected) {
			for range rejected.Names {
				observability.UploadRejected().WithLabelValues("policy").Inc()
			}
			observability.UploadRequests().WithLabelValues("rejected").Inc()
			span.SetStatus(codes.Error, "validation_failed")
		} else {
			observability.UploadRequests().WithLabelValues("failed").Inc()
			span.SetStatus(codes.Error, "upload_failed")
		}
		return dto.AttachmentListResponse{}, err
	}
	observability.UploadRequests().WithLabelValues("success").Inc()

	s.logger.Info().Uint("assignment_id", id).Int("files", len(added)).Msg("attachments uploaded")
	return s.listResponse(ctx, id, added)
}

func (s *attachmentService) AddLink(ctx context.Context, actor Actor, id uint, payload dto.AddLinkRequest) (dto.AttachmentListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttachmentListResponse{}, err
	}

	assignment, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return dto.AttachmentListResponse{}, err
	}

	entry, err := s.manager(assignment).AddExternalLink(ctx, payload.URL, payload.IsProcessDocumentation)
	if err != nil {
		return dto.AttachmentListResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", id).Uint("attachment_id", entry.ID).Msg("external link attached")
	return s.listResponse(ctx, id, []attachment.Entry{entry})
}

func (s *attachmentService) Remove(ctx context.Context, actor Actor, id, attachmentID uint, index int) (dto.AttachmentListResponse, error) {
	assignment, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return dto.AttachmentListResponse{}, err
	}

	if _, err := s.manager(assignment).Remove(ctx, attachmentID, index); err != nil {
		return dto.AttachmentListResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", id).Uint("attachment_id", attachmentID).Msg("attachment removed")
	return s.listResponse(ctx, id, nil)
}

func (s *attachmentService) Progress(ctx context.Context, actor Actor, id uint) (dto.UploadProgressResponse, error) {
	if _, err := loadOwned(ctx, s.assignments, actor, id); err != nil {
		return dto.UploadProgressResponse{}, err
	}

	uploads, err := s.progress.Snapshot(ctx, id)
	if err != nil {
		return dto.UploadProgressResponse{}, err
	}
	return dto.UploadProgressResponse{AssignmentID: id, Uploads: uploads}, nil
}

func (s *attachmentService) loadEditable(ctx context.Context, actor Actor, id uint) (models.Assignment, error) {
	assignment, err := loadOwned(ctx, s.assignments, actor, id)
	if err != nil {
		return models.Assignment{}, err
	}
	if !workflow.IsEditable(assignment.Status) {
		return models.Assignment{}, ErrAssignmentLocked
	}
	return assignment, nil
}

func (s *attachmentService) manager(assignment models.Assignment) *attachment.Manager {
	return attachment.NewManager(assignment.ID, assignment.Files, attachment.Dependencies{
		Gateway:  &attachmentGateway{attachments: s.attachments, storage: s.storage, logger: s.logger},
		Fetcher:  s.fetcher,
		Policy:   s.policy,
		Progress: attachment.NewProgressTracker(s.progress.For(assignment.ID)),
		Logger:   s.logger,
	})
}

func (s *attachmentService) listResponse(ctx context.Context, id uint, added []attachment.Entry) (dto.AttachmentListResponse, error) {
	stored, err := s.attachments.ListByAssignment(ctx, id)
	if err != nil {
		return dto.AttachmentListResponse{}, err
	}

	response := dto.AttachmentListResponse{
		AssignmentID: id,
		Attachments:  make([]dto.AttachmentResponse, 0, len(stored)),
	}
	addedIDs := make(map[uint]struct{}, len(added))
	for _, entry := range added {
		addedIDs[entry.ID] = struct{}{}
	}
	for _, model := range stored {
		item := dto.NewAttachmentResponse(model)
		response.Attachments = append(response.Attachments, item)
		if _, ok := addedIDs[model.ID]; ok {
			response.Added = append(response.Added, item)
		}
	}
	return response, nil
}

// attachmentGateway persists manager mutations through the repository and
// blob storage.
type attachmentGateway struct {
	attachments repository.AttachmentRepository
	storage     BlobStorage
	logger      zerolog.Logger
}

func (g *attachmentGateway) UploadBlob(ctx context.Context, file attachment.File, path string, onProgress func(float64)) (attachment.Blob, error) {
	if g.storage == nil {
		return attachment.Blob{}, ErrStorageUnavailable
	}
	size := int64(len(file.Data))
	reader := attachment.NewProgressReader(bytes.NewReader(file.Data), size, onProgress)
	url, err := g.storage.Upload(ctx, path, reader, size)
	if err != nil {
		return attachment.Blob{}, err
	}
	return attachment.Blob{URL: url, Key: path}, nil
}

func (g *attachmentGateway) CreateRecord(ctx context.Context, record models.Attachment) (models.Attachment, error) {
	if err := g.attachments.Create(ctx, &record); err != nil {
		if record.StorageKey != "" && g.storage != nil {
			if delErr := g.storage.Delete(context.WithoutCancel(ctx), record.StorageKey); delErr != nil {
				g.logger.Warn().Err(delErr).Str("storage_key", record.StorageKey).Msg("failed to delete orphaned blob")
			}
		}
		return models.Attachment{}, err
	}
	return record, nil
}

func (g *attachmentGateway) DeleteRecord(ctx context.Context, id uint) error {
	record, err := g.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return attachment.ErrAttachmentNotFound
		}
		return err
	}
	if err := g.attachments.Delete(ctx, id); err != nil {
		return err
	}
	if record.StorageKey != "" && g.storage != nil {
		if err := g.storage.Delete(ctx, record.StorageKey); err != nil {
			g.logger.Warn().Err(err).Str("storage_key", record.StorageKey).Msg("failed to delete attachment blob")
		}
	}
	return nil
}
