package bulk

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
)

// MockStore is a mock implementation of the Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetRegistration(ctx context.Context, id uuid.UUID) (*entities.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Registration), args.Error(1)
}

func (m *MockStore) PutRegistration(ctx context.Context, reg *entities.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockStore) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) GetTeam(ctx context.Context, id uuid.UUID) (*entities.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Team), args.Error(1)
}

func (m *MockStore) PutTeam(ctx context.Context, team *entities.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockStore) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeTxRunner runs the batch against the same store, recording how
// many transactions were opened
type fakeTxRunner struct {
	store Store
	runs  int
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(tx Store) error) error {
	f.runs++
	return fn(f.store)
}

// MockInvalidator records stats invalidations
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, scope entities.Scope) {
	m.Called(ctx, scope)
}

// MockNotifier records dispatched messages
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notifications.Message) {
	m.Called(ctx, msg)
}

type harness struct {
	store       *MockStore
	tx          *fakeTxRunner
	invalidator *MockInvalidator
	notifier    *MockNotifier
	coordinator *Coordinator
}

func newHarness() *harness {
	store := new(MockStore)
	tx := &fakeTxRunner{store: store}
	invalidator := new(MockInvalidator)
	notifier := new(MockNotifier)
	return &harness{
		store:       store,
		tx:          tx,
		invalidator: invalidator,
		notifier:    notifier,
		coordinator: NewCoordinator(store, tx, invalidator, notifier, zap.NewNop()),
	}
}

func pendingRegistration() *entities.Registration {
	return &entities.Registration{ID: uuid.New(), HackathonID: uuid.New(), Status: entities.RegistrationPending}
}

func TestBulkChangeStatusAppliesToAll(t *testing.T) {
	h := newHarness()
	scope := entities.Scope{}

	regs := []*entities.Registration{pendingRegistration(), pendingRegistration(), pendingRegistration()}
	ids := make([]uuid.UUID, len(regs))
	for i, reg := range regs {
		ids[i] = reg.ID
		h.store.On("GetRegistration", mock.Anything, reg.ID).Return(reg, nil)
		h.store.On("PutRegistration", mock.Anything, reg).Return(nil)
	}
	h.invalidator.On("Invalidate", mock.Anything, scope).Return()

	result, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations, ids,
		Action{Type: ActionChangeStatus, TargetStatus: "approved"}, scope)

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Applied)
	for _, reg := range regs {
		assert.Equal(t, entities.RegistrationApproved, reg.Status)
	}
	assert.Equal(t, 1, h.tx.runs, "one transaction per batch")
	h.invalidator.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestBulkChangeStatusRejectsWholeBatch(t *testing.T) {
	h := newHarness()

	complete := &entities.Team{ID: uuid.New(), Status: entities.TeamComplete}
	active := &entities.Team{ID: uuid.New(), Status: entities.TeamActive}
	h.store.On("GetTeam", mock.Anything, complete.ID).Return(complete, nil)
	h.store.On("GetTeam", mock.Anything, active.ID).Return(active, nil)

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindTeams,
		[]uuid.UUID{active.ID, complete.ID},
		Action{Type: ActionChangeStatus, TargetStatus: "incomplete"}, entities.Scope{})

	var tErr *apperrors.InvalidTransition
	assert.ErrorAs(t, err, &tErr)
	// one invalid target leaves every target untouched
	assert.Equal(t, entities.TeamActive, active.Status)
	assert.Equal(t, 0, h.tx.runs)
	h.store.AssertNotCalled(t, "PutTeam", mock.Anything, mock.Anything)
	h.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestBulkUnknownTargetRejectsBatch(t *testing.T) {
	h := newHarness()

	known := pendingRegistration()
	missing := uuid.New()
	h.store.On("GetRegistration", mock.Anything, known.ID).Return(known, nil)
	h.store.On("GetRegistration", mock.Anything, missing).
		Return(nil, &apperrors.NotFound{Entity: "registration", ID: missing.String()})

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{known.ID, missing},
		Action{Type: ActionChangeStatus, TargetStatus: "approved"}, entities.Scope{})

	var nfErr *apperrors.NotFound
	assert.ErrorAs(t, err, &nfErr)
	assert.Equal(t, entities.RegistrationPending, known.Status)
	assert.Equal(t, 0, h.tx.runs)
}

func TestBulkDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness()

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{uuid.New()}, Action{Type: ActionDelete}, entities.Scope{})

	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
	h.store.AssertNotCalled(t, "GetRegistration", mock.Anything, mock.Anything)
}

func TestBulkDeleteConfirmed(t *testing.T) {
	h := newHarness()
	scope := entities.Scope{}

	reg := pendingRegistration()
	h.store.On("GetRegistration", mock.Anything, reg.ID).Return(reg, nil)
	h.store.On("DeleteRegistration", mock.Anything, reg.ID).Return(nil)
	h.invalidator.On("Invalidate", mock.Anything, scope).Return()

	result, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{reg.ID}, Action{Type: ActionDelete, Confirmed: true}, scope)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	h.store.AssertExpectations(t)
}

func TestBulkInvalidatesEverySuppliedScope(t *testing.T) {
	h := newHarness()

	hackathonID := uuid.New()
	organizerID := uuid.New()
	hackathonScope := entities.Scope{HackathonID: &hackathonID}
	organizerScope := entities.Scope{OrganizerID: &organizerID}

	reg := pendingRegistration()
	h.store.On("GetRegistration", mock.Anything, reg.ID).Return(reg, nil)
	h.store.On("DeleteRegistration", mock.Anything, reg.ID).Return(nil)
	h.invalidator.On("Invalidate", mock.Anything, hackathonScope).Return()
	h.invalidator.On("Invalidate", mock.Anything, organizerScope).Return()

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{reg.ID}, Action{Type: ActionDelete, Confirmed: true},
		organizerScope, hackathonScope)

	assert.NoError(t, err)
	// a hackathon-addressed delete stales the organizer's own snapshot
	// too, so both scopes must be dropped
	h.invalidator.AssertCalled(t, "Invalidate", mock.Anything, organizerScope)
	h.invalidator.AssertCalled(t, "Invalidate", mock.Anything, hackathonScope)
	h.invalidator.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestBulkEmptySelection(t *testing.T) {
	h := newHarness()

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		nil, Action{Type: ActionChangeStatus, TargetStatus: "approved"}, entities.Scope{})

	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestBulkExportRegistrationsCSV(t *testing.T) {
	h := newHarness()

	teamID := uuid.New()
	reg := pendingRegistration()
	reg.TeamID = &teamID
	reg.Name = "Alice Chen"
	h.store.On("GetRegistration", mock.Anything, reg.ID).Return(reg, nil)
	h.store.On("GetTeam", mock.Anything, teamID).
		Return(&entities.Team{ID: teamID, Name: "Gophers"}, nil)

	result, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{reg.ID}, Action{Type: ActionExport, Format: "csv"}, entities.Scope{})

	assert.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "registrations.csv", result.Filename)
	assert.Contains(t, string(result.File), "Alice Chen")
	assert.Contains(t, string(result.File), "Gophers")
	// exports never touch state
	assert.Equal(t, 0, h.tx.runs)
	h.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestBulkExportRejectsUnknownFormat(t *testing.T) {
	h := newHarness()

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{uuid.New()}, Action{Type: ActionExport, Format: "pdf"}, entities.Scope{})

	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestBulkComposeMessageNotifiesEachTarget(t *testing.T) {
	h := newHarness()

	regs := []*entities.Registration{pendingRegistration(), pendingRegistration()}
	ids := make([]uuid.UUID, len(regs))
	for i, reg := range regs {
		ids[i] = reg.ID
		h.store.On("GetRegistration", mock.Anything, reg.ID).Return(reg, nil)
	}
	h.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg notifications.Message) bool {
		return msg.Kind == notifications.KindBulkMessage && msg.Payload["subject"] == "Venue update"
	})).Return()

	result, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations, ids,
		Action{Type: ActionComposeMessage, Subject: "Venue update", Body: "Hall B"}, entities.Scope{})

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	h.notifier.AssertNumberOfCalls(t, "Notify", 2)
	h.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestBulkComposeMessageRequiresContent(t *testing.T) {
	h := newHarness()

	_, err := h.coordinator.ApplyBulkAction(context.Background(), KindRegistrations,
		[]uuid.UUID{uuid.New()}, Action{Type: ActionComposeMessage, Subject: " "}, entities.Scope{})

	var vErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
