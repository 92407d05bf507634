// Package attachment manages the optimistic file and link list of one
// assignment. Every mutation captures an Undo snapshot that is applied
// uniformly when the backing operation fails.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// LoadingTitle is shown for links whose metadata is still being fetched.
const LoadingTitle = "Loading…"

var (
	// ErrUploadFailed indicates a batch upload failed and was rolled back.
	ErrUploadFailed = errors.New("upload failed")
	// ErrLinkMetadata indicates the link title could not be fetched.
	ErrLinkMetadata = errors.New("could not fetch link details")
	// ErrRemoveFailed indicates the server-side delete failed and the entry was restored.
	ErrRemoveFailed = errors.New("could not remove attachment")
	// ErrAttachmentNotFound indicates the id/index pair does not match the list.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// File is one member of an upload batch.
type File struct {
	Name                   string
	Size                   int64
	Data                   []byte
	IsProcessDocumentation bool
}

func (f File) size() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Data))
}

// Entry is one row of the attachment list, persisted or pending.
type Entry struct {
	ID                     uint                  `json:"id"`
	TempID                 string                `json:"temp_id,omitempty"`
	Kind                   models.AttachmentKind `json:"kind"`
	URL                    string                `json:"url"`
	Name                   string                `json:"name"`
	Type                   string                `json:"type"`
	Size                   int64                 `json:"size"`
	IsProcessDocumentation bool                  `json:"is_process_documentation"`
	Progress               *float64              `json:"progress,omitempty"`
}

// Persisted reports whether the entry has a server-side record.
func (e Entry) Persisted() bool {
	return e.ID != 0
}

// EntryFromModel converts a stored attachment.
func EntryFromModel(model models.Attachment) Entry {
	return Entry{
		ID:                     model.ID,
		Kind:                   model.Kind,
		URL:                    model.URL,
		Name:                   model.Name,
		Type:                   model.Type,
		Size:                   model.Size,
		IsProcessDocumentation: model.IsProcessDocumentation,
	}
}

// Blob is the result of a storage upload.
type Blob struct {
	URL string
	Key string
}

// Gateway is the persistence collaborator of the manager.
type Gateway interface {
	UploadBlob(ctx context.Context, file File, path string, onProgress func(float64)) (Blob, error)
	CreateRecord(ctx context.Context, record models.Attachment) (models.Attachment, error)
	DeleteRecord(ctx context.Context, id uint) error
}

// MetadataFetcher resolves display details of external links.
type MetadataFetcher interface {
	Title(ctx context.Context, rawURL string) (string, error)
	Classify(rawURL string) string
}

// Undo restores the list captured before a mutation.
type Undo struct {
	snapshot []Entry
}

// Dependencies bundles the collaborators of a Manager.
type Dependencies struct {
	Gateway  Gateway
	Fetcher  MetadataFetcher
	Policy   Policy
	Progress *ProgressTracker
	Logger   zerolog.Logger
}

// Manager owns the attachment list of a single assignment.
type Manager struct {
	assignmentID uint
	gateway      Gateway
	fetcher      MetadataFetcher
	policy       Policy
	progress     *ProgressTracker
	logger       zerolog.Logger
	newID        func() string

	mu      sync.Mutex
	entries []Entry
}

// NewManager builds a manager seeded with the stored attachments.
func NewManager(assignmentID uint, existing []models.Attachment, deps Dependencies) *Manager {
	entries := make([]Entry, 0, len(existing))
	for _, model := range existing {
		entries = append(entries, EntryFromModel(model))
	}
	progress := deps.Progress
	if progress == nil {
		progress = NewProgressTracker(nil)
	}
	return &Manager{
		assignmentID: assignmentID,
		gateway:      deps.Gateway,
		fetcher:      deps.Fetcher,
		policy:       deps.Policy,
		progress:     progress,
		logger:       deps.Logger.With().Str("component", "attachment_manager").Uint("assignment_id", assignmentID).Logger(),
		newID:        uuid.NewString,
		entries:      entries,
	}
}

// Entries returns a copy of the current list.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEntries(m.entries)
}

// AddFiles validates, optimistically inserts and uploads a batch.
// Any upload failure rolls the whole batch back.
func (m *Manager) AddFiles(ctx context.Context, files []File) ([]Entry, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidFiles)
	}

	types := make([]string, len(files))
	rejected := &RejectedFilesError{Reasons: map[string]string{}}
	for i, file := range files {
		category, err := m.policy.Check(file)
		if err != nil {
			rejected.Names = append(rejected.Names, file.Name)
			rejected.Reasons[file.Name] = err.Error()
			continue
		}
		types[i] = category
	}
	if len(rejected.Names) > 0 {
		return nil, rejected
	}

	placeholders := make([]Entry, len(files))
	for i, file := range files {
		tempID := m.newID()
		zero := 0.0
		placeholders[i] = Entry{
			TempID:                 tempID,
			Kind:                   models.AttachmentKindFile,
			URL:                    "preview://" + tempID,
			Name:                   file.Name,
			Type:                   types[i],
			Size:                   file.size(),
			IsProcessDocumentation: file.IsProcessDocumentation,
			Progress:               &zero,
		}
		m.progress.Start(tempID)
	}

	var basePosition int
	undo := m.mutate(func(entries []Entry) []Entry {
		basePosition = len(entries)
		return append(entries, placeholders...)
	})

	created := make([]models.Attachment, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		file := files[i]
		placeholder := placeholders[i]
		group.Go(func() error {
			path := fmt.Sprintf("assignments/%d/%s-%s", m.assignmentID, shortID(placeholder.TempID), SanitizeFileName(file.Name))
			blob, err := m.gateway.UploadBlob(groupCtx, file, path, func(percent float64) {
				m.setProgress(placeholder.TempID, percent)
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", file.Name, err)
			}

			record, err := m.gateway.CreateRecord(groupCtx, models.Attachment{
				AssignmentID:           m.assignmentID,
				Kind:                   models.AttachmentKindFile,
				URL:                    blob.URL,
				Name:                   file.Name,
				Type:                   placeholder.Type,
				Size:                   placeholder.Size,
				IsProcessDocumentation: file.IsProcessDocumentation,
				Position:               basePosition + i,
				StorageKey:             blob.Key,
			})
			if err != nil {
				return fmt.Errorf("record %s: %w", file.Name, err)
			}

			created[i] = record
			m.replace(placeholder.TempID, EntryFromModel(record))
			m.progress.Release(placeholder.TempID)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		m.rollback(undo)
		for _, placeholder := range placeholders {
			m.progress.Release(placeholder.TempID)
		}
		m.compensate(created)
		m.logger.Warn().Err(err).Int("batch_size", len(files)).Msg("batch upload rolled back")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	added := make([]Entry, 0, len(created))
	for _, record := range created {
		added = append(added, EntryFromModel(record))
	}
	return added, nil
}

// AddExternalLink inserts a loading placeholder, fetches the link title and
// persists it. A failed fetch removes the link entirely.
func (m *Manager) AddExternalLink(ctx context.Context, rawURL string, processDocumentation bool) (Entry, error) {
	normalized, err := normalizeLink(rawURL)
	if err != nil {
		return Entry{}, err
	}

	linkType := "link"
	if m.fetcher != nil {
		linkType = m.fetcher.Classify(normalized)
	}

	tempID := m.newID()
	placeholder := Entry{
		TempID:                 tempID,
		Kind:                   models.AttachmentKindLink,
		URL:                    normalized,
		Name:                   LoadingTitle,
		Type:                   linkType,
		IsProcessDocumentation: processDocumentation,
	}

	var position int
	undo := m.mutate(func(entries []Entry) []Entry {
		position = len(entries)
		return append(entries, placeholder)
	})

	title := normalized
	if m.fetcher != nil {
		fetched, err := m.fetcher.Title(ctx, normalized)
		if err != nil {
			m.rollback(undo)
			m.logger.Warn().Err(err).Str("url", normalized).Msg("link metadata fetch failed")
			return Entry{}, fmt.Errorf("%w: %v", ErrLinkMetadata, err)
		}
		title = fetched
	}

	record, err := m.gateway.CreateRecord(ctx, models.Attachment{
		AssignmentID:           m.assignmentID,
		Kind:                   models.AttachmentKindLink,
		URL:                    normalized,
		Name:                   title,
		Type:                   linkType,
		IsProcessDocumentation: processDocumentation,
		Position:               position,
	})
	if err != nil {
		m.rollback(undo)
		return Entry{}, fmt.Errorf("save link: %w", err)
	}

	entry := EntryFromModel(record)
	m.replace(tempID, entry)
	return entry, nil
}

// Remove deletes the entry at index optimistically. Persisted entries are
// deleted server-side; on failure the entry is restored at its index.
func (m *Manager) Remove(ctx context.Context, id uint, index int) (Entry, error) {
	var removed Entry
	var found bool
	undo := m.mutate(func(entries []Entry) []Entry {
		if index < 0 || index >= len(entries) || entries[index].ID != id {
			index = -1
			for i, entry := range entries {
				if entry.ID == id {
					index = i
					break
				}
			}
		}
		if index < 0 {
			return entries
		}
		found = true
		removed = entries[index]
		return append(entries[:index:index], entries[index+1:]...)
	})
	if !found {
		return Entry{}, ErrAttachmentNotFound
	}

	if !removed.Persisted() {
		return removed, nil
	}

	if err := m.gateway.DeleteRecord(ctx, removed.ID); err != nil {
		m.rollback(undo)
		m.logger.Warn().Err(err).Uint("attachment_id", removed.ID).Msg("attachment delete failed, restored")
		return Entry{}, fmt.Errorf("%w: %v", ErrRemoveFailed, err)
	}
	return removed, nil
}

// Progress returns the tracked percentage of a pending upload.
func (m *Manager) Progress(tempID string) (float64, bool) {
	return m.progress.Value(tempID)
}

func (m *Manager) mutate(fn func([]Entry) []Entry) Undo {
	m.mu.Lock()
	defer m.mu.Unlock()
	undo := Undo{snapshot: cloneEntries(m.entries)}
	m.entries = fn(cloneEntries(m.entries))
	return undo
}

func (m *Manager) rollback(undo Undo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = cloneEntries(undo.snapshot)
}

func (m *Manager) replace(tempID string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].TempID == tempID {
			m.entries[i] = entry
			return
		}
	}
}

func (m *Manager) setProgress(tempID string, percent float64) {
	value, changed := m.progress.Update(tempID, percent)
	if !changed {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].TempID == tempID {
			v := value
			m.entries[i].Progress = &v
			return
		}
	}
}

// compensate removes records that were created by a batch that failed overall.
func (m *Manager) compensate(created []models.Attachment) {
	for _, record := range created {
		if record.ID == 0 {
			continue
		}
		if err := m.gateway.DeleteRecord(context.Background(), record.ID); err != nil {
			m.logger.Error().Err(err).Uint("attachment_id", record.ID).Msg("failed to remove record of rolled back batch")
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

func normalizeLink(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidLink
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", ErrInvalidLink
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidLink
	}
	return parsed.String(), nil
}
