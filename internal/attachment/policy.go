package attachment

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrInvalidFiles indicates at least one file of a batch failed validation.
	ErrInvalidFiles = errors.New("one or more files are not allowed")
	// ErrInvalidLink indicates the external link is not an absolute http(s) URL.
	ErrInvalidLink = errors.New("invalid external link")
)

// RejectedFilesError lists every member of a batch that failed validation.
type RejectedFilesError struct {
	Reasons map[string]string
	Names   []string
}

func (e *RejectedFilesError) Error() string {
	parts := make([]string, 0, len(e.Names))
	for _, name := range e.Names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, e.Reasons[name]))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFiles.Error(), strings.Join(parts, ", "))
}

// Is lets errors.Is match ErrInvalidFiles.
func (e *RejectedFilesError) Is(target error) bool {
	return target == ErrInvalidFiles
}

// Policy restricts which files may be attached.
type Policy struct {
	MaxSize int64
}

// DefaultPolicy accepts files up to 25MB.
func DefaultPolicy() Policy {
	return Policy{MaxSize: 25 * 1024 * 1024}
}

// Check validates one file and returns its derived attachment type.
func (p Policy) Check(file File) (string, error) {
	maxSize := p.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultPolicy().MaxSize
	}

	size := file.size()
	if size == 0 {
		return "", errors.New("file is empty")
	}
	if size > maxSize {
		return "", fmt.Errorf("exceeds %d MB", maxSize/(1024*1024))
	}

	detected := mimetype.Detect(file.Data)
	category := Category(detected.String())
	if category == "" {
		return "", fmt.Errorf("type %s not allowed", detected.String())
	}
	return category, nil
}

// Category maps a MIME type to the attachment type shown in portfolios.
// It returns an empty string for types that may not be attached.
func Category(mime string) string {
	lower := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(lower, ";"); i >= 0 {
		lower = strings.TrimSpace(lower[:i])
	}

	switch {
	case strings.HasPrefix(lower, "image/"):
		return "image"
	case strings.HasPrefix(lower, "video/"):
		return "video"
	case strings.HasPrefix(lower, "audio/"):
		return "audio"
	}

	switch lower {
	case "application/pdf":
		return "pdf"
	case "application/zip", "application/x-zip-compressed":
		return "archive"
	case "text/plain",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.oasis.opendocument.presentation":
		return "document"
	default:
		return ""
	}
}

// SanitizeFileName produces a storage-safe lowercase file name.
func SanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
