package workflow

import (
	"sort"

	"github.com/noah-isme/portfolio-go-api/internal/models"
)

// Action is a lifecycle trigger.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionApprove       Action = "approve"
	ActionRequestRevise Action = "request_revision"
)

type transitionKey struct {
	from   models.AssignmentStatus
	action Action
}

var transitions = map[transitionKey]models.AssignmentStatus{
	{models.StatusDraft, ActionSubmit}:            models.StatusSubmitted,
	{models.StatusInProgress, ActionSubmit}:       models.StatusSubmitted,
	{models.StatusOverdue, ActionSubmit}:          models.StatusSubmitted,
	{models.StatusNeedsRevision, ActionSubmit}:    models.StatusSubmitted,
	{models.StatusSubmitted, ActionApprove}:       models.StatusVerified,
	{models.StatusSubmitted, ActionRequestRevise}: models.StatusNeedsRevision,
}

// Transition returns the status reached by applying action to from.
func Transition(from models.AssignmentStatus, action Action) (models.AssignmentStatus, bool) {
	to, ok := transitions[transitionKey{from: normalizeStatus(from), action: action}]
	return to, ok
}

// IsFrozen reports whether the form is closed for student edits and navigation.
func IsFrozen(status models.AssignmentStatus) bool {
	switch normalizeStatus(status) {
	case models.StatusSubmitted, models.StatusVerified:
		return true
	default:
		return false
	}
}

// IsEditable reports whether autosave and attachment changes are accepted.
func IsEditable(status models.AssignmentStatus) bool {
	switch normalizeStatus(status) {
	case models.StatusDraft, models.StatusInProgress, models.StatusOverdue, models.StatusNeedsRevision:
		return true
	default:
		return false
	}
}

// CanDelete reports whether the assignment is still in a pre-submission state.
func CanDelete(status models.AssignmentStatus) bool {
	switch normalizeStatus(status) {
	case models.StatusDraft, models.StatusInProgress, models.StatusOverdue:
		return true
	default:
		return false
	}
}

// EditableStatuses lists statuses that accept draft writes.
func EditableStatuses() []models.AssignmentStatus {
	return []models.AssignmentStatus{
		models.StatusDraft,
		models.StatusInProgress,
		models.StatusOverdue,
		models.StatusNeedsRevision,
	}
}

// SortFeedbackNewestFirst orders feedback by creation time, most recent first.
func SortFeedbackNewestFirst(items []models.FeedbackItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func normalizeStatus(status models.AssignmentStatus) models.AssignmentStatus {
	if status == "" {
		return models.StatusDraft
	}
	// "approved" is accepted as an alias of verified.
	if status == "approved" {
		return models.StatusVerified
	}
	return status
}
