package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portfolio-go-api/internal/dto"
	"github.com/noah-isme/portfolio-go-api/internal/handler"
	"github.com/noah-isme/portfolio-go-api/internal/service"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

type stubPortfolioService struct {
	response dto.PortfolioResponse
}

func (s stubPortfolioService) Get(context.Context, uint) (dto.PortfolioResponse, error) {
	return s.response, nil
}

func (s stubPortfolioService) GetBySlug(context.Context, string) (dto.PortfolioResponse, error) {
	return s.response, nil
}

func (s stubPortfolioService) Invalidate(context.Context, uint) error {
	return nil
}

type stubStepService struct {
	response dto.StepsResponse
}

func (s stubStepService) Evaluate(context.Context, service.Actor, uint) (dto.StepsResponse, error) {
	return s.response, nil
}

func (s stubStepService) Navigate(context.Context, service.Actor, uint, dto.NavigateRequest) (dto.NavigateResponse, error) {
	return dto.NavigateResponse{}, nil
}

type stubReviewService struct {
	service.ReviewService
	submitErr error
}

func (s stubReviewService) Submit(context.Context, service.Actor, uint, dto.SubmitAssignmentRequest) (dto.SubmitResponse, error) {
	return dto.SubmitResponse{}, s.submitErr
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func studentGroup(app *fiber.App, prefix string) fiber.Router {
	return app.Group(prefix, func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "student")
		return c.Next()
	})
}

func validateResponse(t *testing.T, schema *jsonschema.Schema, resp *http.Response, status int) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestPublicPortfolioContract(t *testing.T) {
	schema := compileSchema(t, "portfolio.schema.json")

	now := time.Now().UTC()
	svc := stubPortfolioService{response: dto.PortfolioResponse{
		StudentID:   7,
		StudentName: "Ana Lopez",
		GeneratedAt: now,
		Items: []dto.PortfolioItem{{
			ID:                  3,
			Title:               "Volcano Diagram",
			Subject:             "Science",
			Grade:               "7",
			Month:               "March",
			ArtifactType:        "image",
			SelectedSkills:      []string{"communication"},
			SkillsJustification: "Explained the eruption cycle",
			CreationProcess:     "Sketched, then painted",
			Learnings:           "Plate tectonics",
			VerifiedAt:          &now,
			Attachments: []dto.AttachmentResponse{
				{ID: 1, Kind: "file", URL: "https://cdn.example.com/volcano.png", Name: "volcano.png", Type: "image", Size: 2048, CreatedAt: now},
				{ID: 2, Kind: "link", URL: "https://youtu.be/abc", Name: "Eruption timelapse", Type: "youtube", Position: 1, IsProcessDocumentation: true, CreatedAt: now},
			},
		}},
	}}

	app := fiber.New()
	handler.NewPortfolioHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/public"))

	for _, path := range []string{"/api/v1/public/portfolios/7", "/api/v1/public/portfolios/ana-lopez"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		validateResponse(t, schema, resp, http.StatusOK)
	}
}

func TestAssignmentStepsContract(t *testing.T) {
	schema := compileSchema(t, "assignment_steps.schema.json")

	steps := make([]dto.StepStatus, 0, len(workflow.DefaultTable.Steps()))
	for index, step := range workflow.DefaultTable.Steps() {
		steps = append(steps, dto.StepStatus{
			ID:        string(step.ID),
			Title:     step.Title,
			Index:     index,
			Valid:     index == 0,
			Reachable: index <= 1,
			Missing:   []string{},
		})
	}
	svc := stubStepService{response: dto.StepsResponse{AssignmentID: 3, Status: "in_progress", Steps: steps}}

	app := fiber.New()
	handler.NewStepHandler(svc, zerolog.Nop()).Register(studentGroup(app, "/api/v2/assignments"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/assignments/3/steps", nil))
	require.NoError(t, err)
	validateResponse(t, schema, resp, http.StatusOK)
}

func TestIncompleteSubmissionContract(t *testing.T) {
	schema := compileSchema(t, "step_incomplete.schema.json")

	reviews := stubReviewService{submitErr: &service.StepIncompleteError{
		Step:    workflow.StepReviewSubmit,
		Missing: []string{"basic-info.artifact", "process-challenges.improvements"},
	}}

	app := fiber.New()
	handler.NewAssignmentHandler(nil, nil, reviews, zerolog.Nop()).Register(studentGroup(app, "/api/v2/assignments"))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v2/assignments/3/submit", nil))
	require.NoError(t, err)
	validateResponse(t, schema, resp, http.StatusUnprocessableEntity)
}
