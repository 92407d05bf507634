package attachment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeGateway struct {
	mu         sync.Mutex
	nextID     uint
	records    map[uint]models.Attachment
	failNames  map[string]error
	failCreate error
	failDelete error
	uploadHook func(file File, onProgress func(float64))
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[uint]models.Attachment), failNames: make(map[string]error)}
}

func (g *fakeGateway) UploadBlob(ctx context.Context, file File, path string, onProgress func(float64)) (Blob, error) {
	if g.uploadHook != nil {
		g.uploadHook(file, onProgress)
	}
	if err := g.failNames[file.Name]; err != nil {
		return Blob{}, err
	}
	onProgress(100)
	return Blob{URL: "https://cdn.test/" + path, Key: path}, nil
}

func (g *fakeGateway) CreateRecord(ctx context.Context, record models.Attachment) (models.Attachment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate != nil {
		return models.Attachment{}, g.failCreate
	}
	g.nextID++
	record.ID = g.nextID
	g.records[record.ID] = record
	return record, nil
}

func (g *fakeGateway) DeleteRecord(ctx context.Context, id uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDelete != nil {
		return g.failDelete
	}
	delete(g.records, id)
	return nil
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

type fakeFetcher struct {
	title string
	err   error
	block chan struct{}
}

func (f *fakeFetcher) Title(ctx context.Context, rawURL string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return f.title, f.err
}

func (f *fakeFetcher) Classify(rawURL string) string {
	if strings.Contains(rawURL, "youtube") {
		return "youtube"
	}
	return "link"
}

func newTestManager(gateway *fakeGateway, fetcher MetadataFetcher, existing ...models.Attachment) *Manager {
	return NewManager(42, existing, Dependencies{
		Gateway: gateway,
		Fetcher: fetcher,
		Policy:  DefaultPolicy(),
		Logger:  zerolog.Nop(),
	})
}

func TestAddFilesUploadsBatch(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, nil)

	added, err := manager.AddFiles(context.Background(), []File{
		{Name: "Sketch One.png", Data: pngHeader},
		{Name: "notes.txt", Data: []byte("plain text notes"), IsProcessDocumentation: true},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)

	entries := manager.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "image", entries[0].Type)
	require.Equal(t, "document", entries[1].Type)
	require.True(t, entries[1].IsProcessDocumentation)
	for _, entry := range entries {
		require.True(t, entry.Persisted())
		require.Empty(t, entry.TempID)
		require.Nil(t, entry.Progress)
		require.True(t, strings.HasPrefix(entry.URL, "https://cdn.test/assignments/42/"))
	}
	require.Equal(t, 2, gateway.count())
}

func TestAddFilesRollsBackWholeBatchOnFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.failNames["second.png"] = errors.New("storage unavailable")
	existing := models.Attachment{ID: 900, Kind: models.AttachmentKindLink, URL: "https://example.com", Name: "Example"}
	manager := newTestManager(gateway, nil, existing)

	_, err := manager.AddFiles(context.Background(), []File{
		{Name: "first.png", Data: pngHeader},
		{Name: "second.png", Data: pngHeader},
		{Name: "third.png", Data: pngHeader},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUploadFailed)

	entries := manager.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, uint(900), entries[0].ID)
	require.Equal(t, 0, gateway.count())
}

func TestAddFilesRejectsInvalidBatchUpFront(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, nil)

	_, err := manager.AddFiles(context.Background(), []File{
		{Name: "ok.png", Data: pngHeader},
		{Name: "empty.png"},
		{Name: "tool.exe", Data: []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff\x00\x00")},
	})
	require.ErrorIs(t, err, ErrInvalidFiles)

	var rejected *RejectedFilesError
	require.True(t, errors.As(err, &rejected))
	require.ElementsMatch(t, []string{"empty.png", "tool.exe"}, rejected.Names)
	require.Empty(t, manager.Entries())
	require.Equal(t, 0, gateway.count())
}

func TestAddFilesShowsPlaceholderWhileUploading(t *testing.T) {
	gateway := newFakeGateway()
	started := make(chan func(float64), 1)
	release := make(chan struct{})
	gateway.uploadHook = func(file File, onProgress func(float64)) {
		started <- onProgress
		<-release
	}
	manager := newTestManager(gateway, nil)

	done := make(chan error, 1)
	go func() {
		_, err := manager.AddFiles(context.Background(), []File{{Name: "draft.png", Data: pngHeader}})
		done <- err
	}()

	var report func(float64)
	select {
	case report = <-started:
	case <-time.After(time.Second):
		t.Fatal("upload never started")
	}

	entries := manager.Entries()
	require.Len(t, entries, 1)
	require.False(t, entries[0].Persisted())
	require.True(t, strings.HasPrefix(entries[0].URL, "preview://"))
	require.NotNil(t, entries[0].Progress)
	require.Equal(t, 0.0, *entries[0].Progress)

	report(150)
	entries = manager.Entries()
	require.Equal(t, 100.0, *entries[0].Progress)

	close(release)
	require.NoError(t, <-done)
	entries = manager.Entries()
	require.True(t, entries[0].Persisted())
	require.Nil(t, entries[0].Progress)
}

func TestAddExternalLinkUsesFetchedTitle(t *testing.T) {
	gateway := newFakeGateway()
	fetcher := &fakeFetcher{title: "My Timelapse", block: make(chan struct{})}
	manager := newTestManager(gateway, fetcher)

	done := make(chan error, 1)
	go func() {
		_, err := manager.AddExternalLink(context.Background(), "https://www.youtube.com/watch?v=abc", true)
		done <- err
	}()

	require.Eventually(t, func() bool { return len(manager.Entries()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, LoadingTitle, manager.Entries()[0].Name)

	close(fetcher.block)
	require.NoError(t, <-done)

	entries := manager.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "My Timelapse", entries[0].Name)
	require.Equal(t, "youtube", entries[0].Type)
	require.Equal(t, models.AttachmentKindLink, entries[0].Kind)
	require.True(t, entries[0].IsProcessDocumentation)
}

func TestAddExternalLinkRollsBackOnFetchFailure(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, &fakeFetcher{err: errors.New("timeout")})

	_, err := manager.AddExternalLink(context.Background(), "https://example.com/video", false)
	require.ErrorIs(t, err, ErrLinkMetadata)
	require.Empty(t, manager.Entries())
	require.Equal(t, 0, gateway.count())
}

func TestAddExternalLinkRejectsInvalidURL(t *testing.T) {
	manager := newTestManager(newFakeGateway(), &fakeFetcher{title: "x"})

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "/relative"} {
		_, err := manager.AddExternalLink(context.Background(), raw, false)
		require.ErrorIs(t, err, ErrInvalidLink, raw)
	}
	require.Empty(t, manager.Entries())
}

func TestRemoveRestoresEntryAtIndexOnFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.failDelete = errors.New("db down")
	manager := newTestManager(gateway, nil,
		models.Attachment{ID: 1, Kind: models.AttachmentKindFile, Name: "a.png"},
		models.Attachment{ID: 2, Kind: models.AttachmentKindFile, Name: "b.png"},
		models.Attachment{ID: 3, Kind: models.AttachmentKindLink, Name: "c"},
	)

	_, err := manager.Remove(context.Background(), 2, 1)
	require.ErrorIs(t, err, ErrRemoveFailed)

	entries := manager.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, uint(2), entries[1].ID)
}

func TestRemoveDeletesPersistedEntry(t *testing.T) {
	gateway := newFakeGateway()
	manager := newTestManager(gateway, nil)
	_, err := manager.AddFiles(context.Background(), []File{{Name: "a.png", Data: pngHeader}, {Name: "b.png", Data: pngHeader}})
	require.NoError(t, err)

	target := manager.Entries()[0]
	removed, err := manager.Remove(context.Background(), target.ID, 0)
	require.NoError(t, err)
	require.Equal(t, target.ID, removed.ID)
	require.Len(t, manager.Entries(), 1)
	require.Equal(t, 1, gateway.count())

	_, err = manager.Remove(context.Background(), 999, 0)
	require.ErrorIs(t, err, ErrAttachmentNotFound)
}
