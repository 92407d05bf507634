package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type stubFetcher struct {
	title string
	err   error
}

func (f stubFetcher) Title(context.Context, string) (string, error) {
	return f.title, f.err
}

func (f stubFetcher) Classify(string) string {
	return "youtube"
}

type attachmentFixture struct {
	assignments *fakeAssignmentRepo
	attachments *fakeAttachmentRepo
	storage     *memoryBlobStorage
	progress    UploadProgressStore
	svc         AttachmentService
	assignment  models.Assignment
}

func newAttachmentFixture(status models.AssignmentStatus, fetcher attachment.MetadataFetcher) attachmentFixture {
	f := attachmentFixture{
		assignments: newFakeAssignmentRepo(),
		attachments: newFakeAttachmentRepo(),
		storage:     newMemoryBlobStorage(),
		progress:    NewUploadProgressStore(nil, testLogger()),
	}
	assignment := completeAssignment(studentActor.ID)
	assignment.Files = nil
	assignment.Status = status
	f.assignment = f.assignments.seed(assignment)

	f.svc = NewAttachmentService(AttachmentDependencies{
		Assignments: f.assignments,
		Attachments: f.attachments,
		Storage:     f.storage,
		Fetcher:     fetcher,
		Progress:    f.progress,
		Policy:      attachment.DefaultPolicy(),
		Validator:   testValidator(),
		Logger:      testLogger(),
	})
	return f
}

// syncFiles mirrors stored attachments onto the fake assignment, as preloading would.
func (f attachmentFixture) syncFiles(t *testing.T) {
	t.Helper()
	files, err := f.attachments.ListByAssignment(context.Background(), f.assignment.ID)
	require.NoError(t, err)
	assignment := f.assignments.get(f.assignment.ID)
	assignment.Files = files
	f.assignments.seed(assignment)
}

func TestUploadFilesStoresBlobsAndRecords(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)

	resp, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{
		{Name: "Volcano Sketch.PNG", Data: pngBytes},
		{Name: "process.png", Data: pngBytes, IsProcessDocumentation: true},
	})
	require.NoError(t, err)
	require.Len(t, resp.Added, 2)
	require.Len(t, resp.Attachments, 2)
	require.Equal(t, "image", resp.Attachments[0].Type)
	require.Equal(t, 0, resp.Attachments[0].Position)
	require.Equal(t, 1, resp.Attachments[1].Position)
	require.True(t, resp.Attachments[1].IsProcessDocumentation)
	require.Contains(t, resp.Attachments[0].URL, "volcano-sketch.png")
	require.Equal(t, 2, f.storage.count())

	progress, err := f.svc.Progress(context.Background(), studentActor, f.assignment.ID)
	require.NoError(t, err)
	require.Empty(t, progress.Uploads)
}

func TestUploadFilesRejectsInvalidBatchWithoutStorageCalls(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)

	_, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{
		{Name: "ok.png", Data: pngBytes},
		{Name: "script.exe", Data: []byte("MZ\x90\x00binary")},
	})
	require.ErrorIs(t, err, attachment.ErrInvalidFiles)

	var rejected *attachment.RejectedFilesError
	require.True(t, errors.As(err, &rejected))
	require.Equal(t, []string{"script.exe"}, rejected.Names)
	require.Zero(t, f.storage.count())
}

func TestUploadFilesRollsBackWholeBatch(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)
	f.storage.failKey = "broken.png"

	_, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{
		{Name: "fine.png", Data: pngBytes},
		{Name: "broken.png", Data: pngBytes},
	})
	require.ErrorIs(t, err, attachment.ErrUploadFailed)

	stored, err := f.attachments.ListByAssignment(context.Background(), f.assignment.ID)
	require.NoError(t, err)
	require.Empty(t, stored)
	require.Zero(t, f.storage.count())
}

func TestUploadFilesRequiresEditableAssignment(t *testing.T) {
	f := newAttachmentFixture(models.StatusVerified, nil)

	_, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{{Name: "a.png", Data: pngBytes}})
	require.ErrorIs(t, err, ErrAssignmentLocked)

	other := Actor{ID: 77, Role: studentActor.Role}
	_, err = f.svc.UploadFiles(context.Background(), other, f.assignment.ID, []attachment.File{{Name: "a.png", Data: pngBytes}})
	require.ErrorIs(t, err, ErrAssignmentAccessDenied)
}

func TestAddLinkPersistsFetchedTitle(t *testing.T) {
	f := newAttachmentFixture(models.StatusNeedsRevision, stubFetcher{title: "Eruption timelapse"})

	resp, err := f.svc.AddLink(context.Background(), studentActor, f.assignment.ID, dto.AddLinkRequest{URL: "https://youtu.be/abc"})
	require.NoError(t, err)
	require.Len(t, resp.Added, 1)
	require.Equal(t, "Eruption timelapse", resp.Added[0].Name)
	require.Equal(t, "youtube", resp.Added[0].Type)
	require.Equal(t, string(models.AttachmentKindLink), resp.Added[0].Kind)
}

func TestAddLinkFetchFailureLeavesNoRecord(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, stubFetcher{err: errors.New("timeout")})

	_, err := f.svc.AddLink(context.Background(), studentActor, f.assignment.ID, dto.AddLinkRequest{URL: "https://youtu.be/abc"})
	require.ErrorIs(t, err, attachment.ErrLinkMetadata)

	stored, err := f.attachments.ListByAssignment(context.Background(), f.assignment.ID)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestRemoveDeletesRecordAndBlob(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)

	uploaded, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{
		{Name: "one.png", Data: pngBytes},
		{Name: "two.png", Data: pngBytes},
	})
	require.NoError(t, err)
	f.syncFiles(t)

	target := uploaded.Attachments[0]
	resp, err := f.svc.Remove(context.Background(), studentActor, f.assignment.ID, target.ID, 0)
	require.NoError(t, err)
	require.Len(t, resp.Attachments, 1)
	require.NotEqual(t, target.ID, resp.Attachments[0].ID)
	require.Len(t, f.storage.deleted, 1)
	require.Equal(t, 1, f.storage.count())
}

func TestRemoveFailureKeepsRecord(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)

	uploaded, err := f.svc.UploadFiles(context.Background(), studentActor, f.assignment.ID, []attachment.File{{Name: "one.png", Data: pngBytes}})
	require.NoError(t, err)
	f.syncFiles(t)
	f.attachments.deleteErr = errors.New("db offline")

	_, err = f.svc.Remove(context.Background(), studentActor, f.assignment.ID, uploaded.Attachments[0].ID, 0)
	require.ErrorIs(t, err, attachment.ErrRemoveFailed)

	stored, err := f.attachments.ListByAssignment(context.Background(), f.assignment.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestRemoveUnknownAttachment(t *testing.T) {
	f := newAttachmentFixture(models.StatusInProgress, nil)

	_, err := f.svc.Remove(context.Background(), studentActor, f.assignment.ID, 4242, 0)
	require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)
}

func TestMemoryProgressStoreSnapshot(t *testing.T) {
	store := NewUploadProgressStore(nil, testLogger())
	sink := store.For(5)
	sink.Publish("tmp-1", 40)
	sink.Publish("tmp-2", 10)
	sink.Clear("tmp-2")

	uploads, err := store.Snapshot(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"tmp-1": 40}, uploads)

	other, err := store.Snapshot(context.Background(), 6)
	require.NoError(t, err)
	require.Empty(t, other)
}
