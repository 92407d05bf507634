package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

func TestStepsEvaluateReportsValidityWithoutMarkingVisits(t *testing.T) {
	repo := newFakeAssignmentRepo()
	assignment := completeAssignment(studentActor.ID)
	assignment.Challenges = ""
	stored := repo.seed(assignment)

	svc := NewStepService(repo, workflow.DefaultTable, testValidator(), testLogger())
	resp, err := svc.Evaluate(context.Background(), studentActor, stored.ID)
	require.NoError(t, err)
	require.False(t, resp.Frozen)
	require.Len(t, resp.Steps, 6)

	require.True(t, resp.Steps[0].Valid)
	require.True(t, resp.Steps[0].Reachable)
	require.False(t, resp.Steps[3].Valid)
	require.Equal(t, []string{"challenges"}, resp.Steps[3].Missing)
	require.False(t, resp.Steps[4].Reachable)

	for _, step := range resp.Steps {
		require.False(t, step.Visited)
	}
	_, writes := repo.counts()
	require.Zero(t, writes)
}

func TestStepsNavigateNextPersistsVisits(t *testing.T) {
	repo := newFakeAssignmentRepo()
	stored := repo.seed(completeAssignment(studentActor.ID))

	svc := NewStepService(repo, workflow.DefaultTable, testValidator(), testLogger())
	resp, err := svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current:   string(workflow.StepBasicInfo),
		Direction: "next",
	})
	require.NoError(t, err)
	require.True(t, resp.Allowed)
	require.Equal(t, string(workflow.StepRoleOriginality), resp.To)
	require.Contains(t, resp.Visited, string(workflow.StepBasicInfo))
	require.Contains(t, []string(repo.get(stored.ID).VisitedSteps), string(workflow.StepBasicInfo))
}

func TestStepsNavigateRoleOriginalityScenario(t *testing.T) {
	repo := newFakeAssignmentRepo()
	assignment := completeAssignment(studentActor.ID)
	assignment.IsTeamWork = true
	stored := repo.seed(assignment)

	svc := NewStepService(repo, workflow.DefaultTable, testValidator(), testLogger())
	resp, err := svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current:   string(workflow.StepRoleOriginality),
		Direction: "next",
	})
	require.NoError(t, err)
	require.False(t, resp.Allowed)
	require.Equal(t, string(workflow.StepRoleOriginality), resp.To)
	require.Equal(t, []string{workflow.RequirementTeamContribution}, resp.Missing)

	draft := draftFrom(stored)
	draft.IsTeamWork = true
	draft.TeamContribution = "Drew the cross-section"
	resp, err = svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current:   string(workflow.StepRoleOriginality),
		Direction: "next",
		Draft:     &draft,
	})
	require.NoError(t, err)
	require.True(t, resp.Allowed)
	require.Equal(t, string(workflow.StepSkillsReflection), resp.To)
}

func TestStepsNavigateFrozenAssignmentOnlyReachesFeedback(t *testing.T) {
	repo := newFakeAssignmentRepo()
	assignment := completeAssignment(studentActor.ID)
	assignment.Status = models.StatusSubmitted
	stored := repo.seed(assignment)

	svc := NewStepService(repo, workflow.DefaultTable, testValidator(), testLogger())
	resp, err := svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current: string(workflow.StepTeacherFeedback),
		Target:  string(workflow.StepBasicInfo),
	})
	require.NoError(t, err)
	require.False(t, resp.Allowed)
	require.Empty(t, resp.Missing)

	resp, err = svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current: string(workflow.StepBasicInfo),
		Target:  string(workflow.StepTeacherFeedback),
	})
	require.NoError(t, err)
	require.True(t, resp.Allowed)
}

func TestStepsNavigateUnknownStep(t *testing.T) {
	repo := newFakeAssignmentRepo()
	stored := repo.seed(completeAssignment(studentActor.ID))

	svc := NewStepService(repo, workflow.DefaultTable, testValidator(), testLogger())
	_, err := svc.Navigate(context.Background(), studentActor, stored.ID, dto.NavigateRequest{
		Current: "summary",
		Target:  string(workflow.StepBasicInfo),
	})
	require.ErrorIs(t, err, ErrUnknownStep)
}
