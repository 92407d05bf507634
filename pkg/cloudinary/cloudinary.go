package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores attachment blobs in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the blob stored under key and returns its secure URL. The
// reader is consumed by the SDK, so wrapping it reports upload progress.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader, _ int64) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     PublicID(key),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// Delete removes the blob stored under key. Cloudinary scopes public ids by
// resource type, so each type is tried until one matches.
func (s *Service) Delete(ctx context.Context, key string) error {
	publicID := PublicID(key)
	if s.folder != "" {
		publicID = s.folder + "/" + publicID
	}

	for _, resourceType := range []string{"image", "video", "raw"} {
		result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID:     publicID,
			ResourceType: resourceType,
		})
		if err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}
		if result.Result == "ok" {
			s.logger.Info().Str("public_id", publicID).Msg("file deleted from cloudinary")
			return nil
		}
	}

	s.logger.Debug().Str("public_id", publicID).Msg("asset already absent from cloudinary")
	return nil
}

// PublicID derives the Cloudinary public id of a storage key: the key
// without its extension, with unsafe characters replaced.
func PublicID(key string) string {
	dir, file := path.Split(strings.Trim(key, "/"))
	base := strings.TrimSuffix(file, path.Ext(file))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	return dir + base
}
