package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   models.AssignmentStatus
		action Action
		to     models.AssignmentStatus
		ok     bool
	}{
		{models.StatusDraft, ActionSubmit, models.StatusSubmitted, true},
		{"", ActionSubmit, models.StatusSubmitted, true},
		{models.StatusNeedsRevision, ActionSubmit, models.StatusSubmitted, true},
		{models.StatusSubmitted, ActionApprove, models.StatusVerified, true},
		{models.StatusSubmitted, ActionRequestRevise, models.StatusNeedsRevision, true},
		{models.StatusSubmitted, ActionSubmit, "", false},
		{models.StatusDraft, ActionApprove, "", false},
		{models.StatusVerified, ActionRequestRevise, "", false},
		{"approved", ActionSubmit, "", false},
	}

	for _, tc := range cases {
		to, ok := Transition(tc.from, tc.action)
		require.Equal(t, tc.ok, ok, "%s --%s-->", tc.from, tc.action)
		require.Equal(t, tc.to, to)
	}
}

func TestStatusPredicates(t *testing.T) {
	require.True(t, CanDelete(models.StatusDraft))
	require.True(t, CanDelete(models.StatusOverdue))
	require.False(t, CanDelete(models.StatusNeedsRevision))
	require.False(t, CanDelete(models.StatusSubmitted))

	require.True(t, IsEditable(models.StatusNeedsRevision))
	require.False(t, IsEditable(models.StatusVerified))
	require.True(t, IsFrozen("approved"))
}

func TestSortFeedbackNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []models.FeedbackItem{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 3, CreatedAt: base.Add(time.Hour)},
		{ID: 4, CreatedAt: base.Add(2 * time.Hour)},
	}

	SortFeedbackNewestFirst(items)

	ids := []uint{items[0].ID, items[1].ID, items[2].ID, items[3].ID}
	require.Equal(t, []uint{4, 2, 3, 1}, ids)
}
