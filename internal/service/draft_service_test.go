package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
)

func draftFrom(assignment models.Assignment) dto.DraftRequest {
	return dto.DraftRequest{
		Title:               assignment.Title,
		Subject:             assignment.Subject,
		Grade:               assignment.Grade,
		Month:               assignment.Month,
		ArtifactType:        assignment.ArtifactType,
		SelectedSkills:      append([]string{}, assignment.SelectedSkills...),
		SkillsJustification: assignment.SkillsJustification,
		CreationProcess:     assignment.CreationProcess,
		Learnings:           assignment.Learnings,
		Challenges:          assignment.Challenges,
		Improvements:        assignment.Improvements,
	}
}

func TestDraftScheduleAndFlushPersistsLatestEdit(t *testing.T) {
	repo := newFakeAssignmentRepo()
	assignment := completeAssignment(studentActor.ID)
	assignment.Status = models.StatusDraft
	stored := repo.seed(assignment)

	svc := NewDraftService(repo, nil, testValidator(), time.Hour, testLogger())
	defer svc.Close()

	payload := draftFrom(stored)
	payload.Title = "Volcano v1"
	accepted, err := svc.Schedule(context.Background(), studentActor, stored.ID, payload)
	require.NoError(t, err)
	require.True(t, accepted.Pending)

	payload.Title = "Volcano v2"
	_, err = svc.Schedule(context.Background(), studentActor, stored.ID, payload)
	require.NoError(t, err)

	resp, err := svc.Flush(context.Background(), studentActor, stored.ID)
	require.NoError(t, err)
	require.Equal(t, "Volcano v2", resp.Title)
	require.Equal(t, string(models.StatusInProgress), resp.Status)

	_, writes := repo.counts()
	require.Equal(t, 1, writes)
}

func TestDraftUnchangedEditIsNotWritten(t *testing.T) {
	repo := newFakeAssignmentRepo()
	stored := repo.seed(completeAssignment(studentActor.ID))

	svc := NewDraftService(repo, nil, testValidator(), 5*time.Millisecond, testLogger())
	defer svc.Close()

	_, err := svc.Schedule(context.Background(), studentActor, stored.ID, draftFrom(stored))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	_, writes := repo.counts()
	require.Zero(t, writes)
}

func TestDraftRejectsLockedAndForeignAssignments(t *testing.T) {
	repo := newFakeAssignmentRepo()
	assignment := completeAssignment(studentActor.ID)
	assignment.Status = models.StatusSubmitted
	stored := repo.seed(assignment)

	svc := NewDraftService(repo, nil, testValidator(), time.Hour, testLogger())
	defer svc.Close()

	_, err := svc.Schedule(context.Background(), studentActor, stored.ID, draftFrom(stored))
	require.ErrorIs(t, err, ErrAssignmentLocked)

	_, err = svc.Schedule(context.Background(), Actor{ID: 99}, stored.ID, draftFrom(stored))
	require.ErrorIs(t, err, ErrAssignmentAccessDenied)
}

func TestDraftFlushAfterSubmissionReportsLocked(t *testing.T) {
	repo := newFakeAssignmentRepo()
	stored := repo.seed(completeAssignment(studentActor.ID))

	svc := NewDraftService(repo, nil, testValidator(), time.Hour, testLogger())
	defer svc.Close()

	payload := draftFrom(stored)
	payload.Title = "Late edit"
	_, err := svc.Schedule(context.Background(), studentActor, stored.ID, payload)
	require.NoError(t, err)

	submitted := repo.get(stored.ID)
	submitted.Status = models.StatusSubmitted
	repo.seed(submitted)

	_, err = svc.Flush(context.Background(), studentActor, stored.ID)
	require.ErrorIs(t, err, ErrAssignmentLocked)
	require.Equal(t, "Volcano Diagram", repo.get(stored.ID).Title)
}

func TestDraftFailureNotifiesOwner(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.draftErr = errors.New("database unavailable")
	stored := repo.seed(completeAssignment(studentActor.ID))

	notifier := &recordingNotifier{}
	svc := NewDraftService(repo, notifier, testValidator(), 5*time.Millisecond, testLogger())
	defer svc.Close()

	payload := draftFrom(stored)
	payload.Title = "Unsaved"
	_, err := svc.Schedule(context.Background(), studentActor, stored.ID, payload)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(notifier.all()) == 1 }, time.Second, 5*time.Millisecond)
	sent := notifier.all()[0]
	require.Equal(t, models.NotificationAutosaveFailed, sent.Type)
	require.Equal(t, "10", sent.UserID)
}
