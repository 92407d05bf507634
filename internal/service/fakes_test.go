package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/portfolio-go-api/internal/models"
	"github.com/noah-isme/portfolio-go-api/internal/repository"
	"github.com/noah-isme/portfolio-go-api/internal/workflow"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// fakeAssignmentRepo keeps assignments in memory and counts calls.
type fakeAssignmentRepo struct {
	mu        sync.Mutex
	items     map[uint]models.Assignment
	nextID    uint
	reads     int
	writes    int
	updateErr error
	draftErr  error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{items: make(map[uint]models.Assignment), nextID: 1}
}

func (r *fakeAssignmentRepo) seed(assignment models.Assignment) models.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assignment.ID == 0 {
		assignment.ID = r.nextID
	}
	if assignment.ID >= r.nextID {
		r.nextID = assignment.ID + 1
	}
	r.items[assignment.ID] = assignment
	return assignment
}

func (r *fakeAssignmentRepo) get(id uint) models.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	assignment.ID = r.nextID
	r.nextID++
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = assignment.CreatedAt
	r.items[assignment.ID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	assignment, ok := r.items[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	assignment.Files = append([]models.Attachment(nil), assignment.Files...)
	assignment.Feedback = append([]models.FeedbackItem(nil), assignment.Feedback...)
	return assignment, nil
}

func (r *fakeAssignmentRepo) ListByStudent(_ context.Context, studentID uint, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Assignment
	for _, assignment := range r.items {
		if assignment.StudentID != studentID {
			continue
		}
		if filter.Status != "" && string(assignment.Status) != filter.Status {
			continue
		}
		out = append(out, assignment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeAssignmentRepo) ListReviewQueue(_ context.Context, teacherID uint) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Assignment
	for _, assignment := range r.items {
		if assignment.Status != models.StatusSubmitted {
			continue
		}
		if teacherID != 0 && assignment.HasTeacher() && *assignment.TeacherID != teacherID {
			continue
		}
		out = append(out, assignment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAssignmentRepo) ListVerifiedByStudent(_ context.Context, studentID uint) ([]models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	var out []models.Assignment
	for _, assignment := range r.items {
		if assignment.StudentID == studentID && assignment.Status == models.StatusVerified {
			out = append(out, assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.items[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[assignment.ID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) UpdateDraft(_ context.Context, id uint, draft models.AssignmentDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.draftErr != nil {
		return r.draftErr
	}
	assignment, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !workflow.IsEditable(assignment.Status) {
		return repository.ErrDraftLocked
	}
	draft.Apply(&assignment)
	if assignment.Status == models.StatusDraft {
		assignment.Status = models.StatusInProgress
	}
	r.items[id] = assignment
	return nil
}

func (r *fakeAssignmentRepo) SaveVisitedSteps(_ context.Context, id uint, steps []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	assignment, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.VisitedSteps = datatypes.JSONSlice[string](append([]string{}, steps...))
	r.items[id] = assignment
	return nil
}

func (r *fakeAssignmentRepo) SaveReview(_ context.Context, assignment *models.Assignment, feedback *models.FeedbackItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	stored, ok := r.items[assignment.ID]
	if !ok || stored.Status != models.StatusSubmitted {
		return repository.ErrDraftLocked
	}
	feedback.ID = uint(len(stored.Feedback) + 1)
	feedback.AssignmentID = assignment.ID
	saved := *assignment
	saved.Feedback = append(append([]models.FeedbackItem(nil), stored.Feedback...), *feedback)
	r.items[assignment.ID] = saved
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeAssignmentRepo) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads, r.writes
}

// fakeFeedbackRepo reads feedback stored on the fake assignments.
type fakeFeedbackRepo struct {
	assignments *fakeAssignmentRepo
}

func (r fakeFeedbackRepo) ListByAssignment(_ context.Context, assignmentID uint) ([]models.FeedbackItem, error) {
	return append([]models.FeedbackItem(nil), r.assignments.get(assignmentID).Feedback...), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) all() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.sent...)
}

type recordingDrafts struct {
	flushed   []uint
	discarded []uint
	forgotten []uint
}

func (d *recordingDrafts) FlushPending(_ context.Context, id uint) error {
	d.flushed = append(d.flushed, id)
	return nil
}

func (d *recordingDrafts) Discard(_ context.Context, id uint) error {
	d.discarded = append(d.discarded, id)
	return nil
}

func (d *recordingDrafts) Forget(_ context.Context, id uint) error {
	d.forgotten = append(d.forgotten, id)
	return nil
}

type recordingInvalidator struct {
	students []uint
}

func (i *recordingInvalidator) Invalidate(_ context.Context, studentID uint) error {
	i.students = append(i.students, studentID)
	return nil
}

// fakeAttachmentRepo stores attachments in memory.
type fakeAttachmentRepo struct {
	mu        sync.Mutex
	items     map[uint]models.Attachment
	nextID    uint
	deleteErr error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{items: make(map[uint]models.Attachment), nextID: 100}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = r.nextID
	r.nextID++
	attachment.CreatedAt = time.Now()
	r.items[attachment.ID] = *attachment
	return nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id uint) (models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment, ok := r.items[id]
	if !ok {
		return models.Attachment{}, gorm.ErrRecordNotFound
	}
	return attachment, nil
}

func (r *fakeAttachmentRepo) ListByAssignment(_ context.Context, assignmentID uint) ([]models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Attachment
	for _, attachment := range r.items {
		if attachment.AssignmentID == assignmentID {
			out = append(out, attachment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].ID < out[j].ID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

// memoryBlobStorage records uploaded blobs by key.
type memoryBlobStorage struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string
	failKey string
}

func newMemoryBlobStorage() *memoryBlobStorage {
	return &memoryBlobStorage{blobs: make(map[string][]byte)}
}

func (s *memoryBlobStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failKey != "" && len(key) >= len(s.failKey) && key[len(key)-len(s.failKey):] == s.failKey {
		return "", errors.New("storage unavailable")
	}
	s.blobs[key] = data
	return "https://cdn.test/" + key, nil
}

func (s *memoryBlobStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memoryBlobStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// completeAssignment returns an in-progress assignment that passes every step.
func completeAssignment(studentID uint) models.Assignment {
	return models.Assignment{
		StudentID:           studentID,
		Title:               "Volcano Diagram",
		Subject:             "Science",
		Grade:               "7",
		Month:               "March",
		ArtifactType:        "image",
		SelectedSkills:      datatypes.JSONSlice[string]{"communication"},
		SkillsJustification: "Explained the eruption cycle",
		CreationProcess:     "Sketched, then painted",
		Learnings:           "Plate tectonics",
		Challenges:          "Scaling the diagram",
		Improvements:        "Use a 3D model",
		Status:              models.StatusInProgress,
		Files: []models.Attachment{{
			ID:   1,
			Kind: models.AttachmentKindFile,
			URL:  "https://cdn.test/volcano.png",
			Name: "volcano.png",
			Type: "image",
		}},
	}
}
