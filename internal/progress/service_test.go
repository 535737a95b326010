package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetHackathon(ctx context.Context, id uuid.UUID) (*entities.Hackathon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hackathon), args.Error(1)
}

func (m *MockRepository) GetTask(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Task), args.Error(1)
}

func (m *MockRepository) PutTask(ctx context.Context, task *entities.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*entities.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Submission), args.Error(1)
}

func newTestService(repo Repository, now time.Time) *Service {
	s := NewService(repo, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestCompleteTask(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base)

	item := &entities.Task{ID: uuid.New()}
	mockRepo.On("GetTask", mock.Anything, item.ID).Return(item, nil)
	mockRepo.On("PutTask", mock.Anything, item).Return(nil)

	got, err := service.CompleteTask(context.Background(), item.ID, nil)

	assert.NoError(t, err)
	assert.True(t, got.Completed)
	if assert.NotNil(t, got.CompletedAt) {
		assert.Equal(t, base, *got.CompletedAt)
	}
	mockRepo.AssertExpectations(t)
}

func TestCompleteTaskIdempotent(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base)

	done := base.Add(-time.Hour)
	item := &entities.Task{ID: uuid.New(), Completed: true, CompletedAt: &done}
	mockRepo.On("GetTask", mock.Anything, item.ID).Return(item, nil)

	got, err := service.CompleteTask(context.Background(), item.ID, nil)

	assert.NoError(t, err)
	assert.Equal(t, done, *got.CompletedAt, "repeat completion must not move the timestamp")
	mockRepo.AssertNotCalled(t, "PutTask", mock.Anything, mock.Anything)
}

func TestCompleteTaskRequiresEvidence(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base)

	item := &entities.Task{ID: uuid.New(), RequiresSubmission: true}
	mockRepo.On("GetTask", mock.Anything, item.ID).Return(item, nil)

	_, err := service.CompleteTask(context.Background(), item.ID, nil)

	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	mockRepo.AssertNotCalled(t, "PutTask", mock.Anything, mock.Anything)
}

func TestCompleteTaskAttachesEvidence(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base)

	item := &entities.Task{ID: uuid.New(), RequiresSubmission: true}
	sub := &entities.Submission{ID: uuid.New()}
	mockRepo.On("GetTask", mock.Anything, item.ID).Return(item, nil)
	mockRepo.On("GetSubmission", mock.Anything, sub.ID).Return(sub, nil)
	mockRepo.On("PutTask", mock.Anything, item).Return(nil)

	got, err := service.CompleteTask(context.Background(), item.ID, &sub.ID)

	assert.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, &sub.ID, got.SubmissionID)
}

func TestCompleteTaskUnknownEvidence(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base)

	item := &entities.Task{ID: uuid.New(), RequiresSubmission: true}
	missing := uuid.New()
	mockRepo.On("GetTask", mock.Anything, item.ID).Return(item, nil)
	mockRepo.On("GetSubmission", mock.Anything, missing).
		Return(nil, &apperrors.NotFound{Entity: "submission", ID: missing.String()})

	_, err := service.CompleteTask(context.Background(), item.ID, &missing)

	var nfErr *apperrors.NotFound
	assert.ErrorAs(t, err, &nfErr)
	mockRepo.AssertNotCalled(t, "PutTask", mock.Anything, mock.Anything)
}

func TestReport(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, base.Add(time.Hour))

	first := phase(1, base, base.Add(24*time.Hour), task(true), task(false))
	second := phase(2, base.Add(24*time.Hour), base.Add(48*time.Hour), task(false))
	h := &entities.Hackathon{ID: uuid.New(), Phases: []entities.Phase{first, second}}
	mockRepo.On("GetHackathon", mock.Anything, h.ID).Return(h, nil)

	report, err := service.Report(context.Background(), h.ID)

	assert.NoError(t, err)
	assert.Equal(t, entities.HackathonRunning, report.Status)
	if assert.NotNil(t, report.CurrentPhaseID) {
		assert.Equal(t, first.ID, *report.CurrentPhaseID)
	}
	assert.InDelta(t, 0.25, report.OverallProgress, 1e-9)
	assert.Len(t, report.Phases, 2)
	assert.Equal(t, entities.PhaseActive, report.Phases[0].Status)
	assert.Equal(t, entities.PhaseUpcoming, report.Phases[1].Status)
}
