package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/utils"
)

// AttachmentHandler handles files and external links of an assignment.
type AttachmentHandler struct {
	service  service.AttachmentService
	maxBytes int64
	logger   zerolog.Logger
}

// NewAttachmentHandler constructs an attachment handler. maxBytes caps how
// much of each uploaded file is read before policy validation.
func NewAttachmentHandler(service service.AttachmentService, maxBytes int64, logger zerolog.Logger) *AttachmentHandler {
	if maxBytes <= 0 {
		maxBytes = attachment.DefaultPolicy().MaxSize
	}
	return &AttachmentHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "attachment_handler").Logger(),
	}
}

// Register wires attachment routes below /assignments.
func (h *AttachmentHandler) Register(router fiber.Router) {
	router.Post("/:id/files", h.upload)
	router.Post("/:id/links", h.addLink)
	router.Delete("/:id/attachments/:attachmentID", h.remove)
	router.Get("/:id/uploads/progress", h.progress)
}

func (h *AttachmentHandler) upload(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	if len(headers) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "files are required")
	}

	processDocumentation := false
	if raw := strings.TrimSpace(c.FormValue("is_process_documentation")); raw != "" {
		processDocumentation, err = strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid is_process_documentation")
		}
	}

	files := make([]attachment.File, 0, len(headers))
	for _, header := range headers {
		file, err := h.readFile(header)
		if err != nil {
			return internalError(c, h.logger, err)
		}
		file.IsProcessDocumentation = processDocumentation
		files = append(files, file)
	}

	result, err := h.service.UploadFiles(requestContext(c), actorFromContext(c), id, files)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "files uploaded", result)
}

// readFile reads at most maxBytes+1 so oversized files still fail policy validation.
func (h *AttachmentHandler) readFile(header *multipart.FileHeader) (attachment.File, error) {
	src, err := header.Open()
	if err != nil {
		return attachment.File{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		return attachment.File{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	return attachment.File{
		Name: header.Filename,
		Size: header.Size,
		Data: data,
	}, nil
}

func (h *AttachmentHandler) addLink(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AddLinkRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.AddLink(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "link added", result)
}

func (h *AttachmentHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	attachmentID, err := parseUintParam(c, "attachmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid attachment id")
	}

	index := -1
	if raw := strings.TrimSpace(c.Query("index")); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil || index < 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid index")
		}
	}

	result, err := h.service.Remove(requestContext(c), actorFromContext(c), id, attachmentID, index)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attachment removed", result)
}

func (h *AttachmentHandler) progress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Progress(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "upload progress", result)
}
