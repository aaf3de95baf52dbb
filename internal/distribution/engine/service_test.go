package engine

import (
	"context"
	"errors"
	"testing"

	"salesflow_backend/internal/distribution/repository"
	"salesflow_backend/internal/distribution/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Get(ctx context.Context, org uuid.UUID) (repository.Settings, error) {
	args := m.Called(ctx, org)
	return args.Get(0).(repository.Settings), args.Error(1)
}

func (m *MockSettingsStore) Lock(ctx context.Context, org uuid.UUID) (repository.Settings, error) {
	args := m.Called(ctx, org)
	return args.Get(0).(repository.Settings), args.Error(1)
}

func (m *MockSettingsStore) SaveCursor(ctx context.Context, org uuid.UUID, cursor int) error {
	args := m.Called(ctx, org, cursor)
	return args.Error(0)
}

func (m *MockSettingsStore) Upsert(ctx context.Context, org uuid.UUID, enabled bool, method string, by uuid.UUID) (repository.Settings, error) {
	args := m.Called(ctx, org, enabled, method, by)
	return args.Get(0).(repository.Settings), args.Error(1)
}

type staticRoster []Member

func (r staticRoster) ListRoster(context.Context, uuid.UUID) ([]Member, error) {
	return r, nil
}

type staticWorkload map[uuid.UUID]int

func (w staticWorkload) CountActiveByOwner(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]int, error) {
	return w, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestAssignDisabledLeavesUnassigned(t *testing.T) {
	org := uuid.New()
	store := new(MockSettingsStore)
	store.On("Lock", mock.Anything, org).Return(repository.Settings{OrganizationID: org, Method: MethodRoundRobin}, nil)

	svc := NewService(store, staticRoster(salesReps(2)), staticWorkload{}, passthroughTx{}, logger.Nop())
	decision, err := svc.Assign(context.Background(), org)

	require.NoError(t, err)
	assert.False(t, decision.Assigned())
	assert.Equal(t, ReasonDisabled, decision.Reason)
	store.AssertNotCalled(t, "SaveCursor", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignWithoutEligibleRepsLeavesUnassigned(t *testing.T) {
	org := uuid.New()
	store := new(MockSettingsStore)
	store.On("Lock", mock.Anything, org).Return(repository.Settings{OrganizationID: org, Enabled: true, Method: MethodRoundRobin}, nil)

	roster := staticRoster{{ID: uuid.New(), Role: "Manager", Status: statusActive}}
	svc := NewService(store, roster, staticWorkload{}, passthroughTx{}, logger.Nop())
	decision, err := svc.Assign(context.Background(), org)

	require.NoError(t, err)
	assert.Nil(t, decision.OwnerID)
	assert.Equal(t, ReasonNoEligible, decision.Reason)
}

func TestAssignRoundRobinPersistsCursor(t *testing.T) {
	org := uuid.New()
	reps := salesReps(2)
	store := new(MockSettingsStore)
	store.On("Lock", mock.Anything, org).Return(repository.Settings{OrganizationID: org, Enabled: true, Method: MethodRoundRobin, Cursor: 1}, nil)
	store.On("SaveCursor", mock.Anything, org, 0).Return(nil)

	svc := NewService(store, staticRoster(reps), staticWorkload{}, passthroughTx{}, logger.Nop())
	decision, err := svc.Assign(context.Background(), org)

	require.NoError(t, err)
	require.True(t, decision.Assigned())
	assert.Equal(t, reps[1].ID, *decision.OwnerID)
	store.AssertExpectations(t)
}

func TestAssignLoadBalancedPicksLeastLoaded(t *testing.T) {
	org := uuid.New()
	reps := salesReps(3)
	store := new(MockSettingsStore)
	store.On("Lock", mock.Anything, org).Return(repository.Settings{OrganizationID: org, Enabled: true, Method: MethodLoadBalanced, Cursor: 2}, nil)

	loads := staticWorkload{reps[0].ID: 3, reps[1].ID: 1, reps[2].ID: 1}
	svc := NewService(store, staticRoster(reps), loads, passthroughTx{}, logger.Nop())
	decision, err := svc.Assign(context.Background(), org)

	require.NoError(t, err)
	assert.Equal(t, reps[1].ID, *decision.OwnerID)
	store.AssertNotCalled(t, "SaveCursor", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignSurfacesPersistenceFailure(t *testing.T) {
	org := uuid.New()
	store := new(MockSettingsStore)
	store.On("Lock", mock.Anything, org).Return(repository.Settings{}, errors.New("connection refused"))

	svc := NewService(store, staticRoster(nil), staticWorkload{}, passthroughTx{}, logger.Nop())
	_, err := svc.Assign(context.Background(), org)

	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestUpdateSettingsRejectsUnknownMethod(t *testing.T) {
	store := new(MockSettingsStore)
	svc := NewService(store, staticRoster(nil), staticWorkload{}, passthroughTx{}, logger.Nop())
	enabled := true

	_, err := svc.UpdateSettings(context.Background(), uuid.New(), uuid.New(), transport.UpdateSettingsRequest{Enabled: &enabled, Method: "random"})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
