package adapters

import (
	"context"
	"sync"
	"testing"

	"salesflow_backend/internal/distribution/engine"
	distrepo "salesflow_backend/internal/distribution/repository"
	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/management"
	leadsrepo "salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	pipelinerepo "salesflow_backend/internal/pipeline/repository"
	teamrepo "salesflow_backend/internal/team/repository"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type settingsStore struct {
	mu       sync.Mutex
	settings distrepo.Settings
}

func (s *settingsStore) Get(context.Context, uuid.UUID) (distrepo.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *settingsStore) Lock(ctx context.Context, org uuid.UUID) (distrepo.Settings, error) {
	return s.Get(ctx, org)
}

func (s *settingsStore) SaveCursor(_ context.Context, _ uuid.UUID, cursor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Cursor = cursor
	return nil
}

func (s *settingsStore) Upsert(_ context.Context, _ uuid.UUID, enabled bool, method string, _ uuid.UUID) (distrepo.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Enabled, s.settings.Method = enabled, method
	return s.settings, nil
}

type teamFake struct {
	members []teamrepo.Member
}

func (f teamFake) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (teamrepo.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return teamrepo.Member{}, apperr.NotFound("team member not found")
}

func (f teamFake) Roster(context.Context, uuid.UUID) ([]teamrepo.Member, error) {
	return f.members, nil
}

type columnsFake struct{}

func (columnsFake) Columns(context.Context, uuid.UUID) ([]pipelinerepo.Column, error) {
	return []pipelinerepo.Column{{Key: "lead", Title: "New Lead", Probability: 10}, {Key: "qualified", Title: "Qualified", Probability: 30}}, nil
}

// leadStore records creations; management only calls Create on this path.
type leadStore struct {
	management.Repository
	mu      sync.Mutex
	created []leadsrepo.Lead
}

func (s *leadStore) Create(_ context.Context, p leadsrepo.CreateLeadParams) (leadsrepo.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead := leadsrepo.Lead{ID: p.ID, OrganizationID: p.OrganizationID, Name: p.Name, Stage: p.Stage, OwnerID: p.OwnerID, Probability: p.Probability, Source: p.Source}
	s.created = append(s.created, lead)
	return lead, nil
}

type noDuplicates struct{}

func (noDuplicates) Detect(context.Context, uuid.UUID, uuid.UUID, *string, *string) (conflict.Info, error) {
	return conflict.Info{Outcome: conflict.OutcomeNone}, nil
}

func newScenario(method string, members ...teamrepo.Member) (*management.Service, *leadStore) {
	log := logger.Nop()
	team := NewTeamRoster(teamFake{members: members})
	store := &settingsStore{settings: distrepo.Settings{Enabled: true, Method: method}}
	eng := engine.NewService(store, team, NewLeadWorkload(nil), passthroughTx{}, log)
	leads := &leadStore{}

	svc := management.New(leads, NewLeadDistributor(eng), team, noDuplicates{}, NewPipelineBoard(columnsFake{}),
		passthroughTx{}, events.NewInMemoryBus(log), log, management.Options{})
	return svc, leads
}

func TestRoundRobinAcrossActiveSalesReps(t *testing.T) {
	r1 := teamrepo.Member{ID: uuid.New(), Name: "R1", Role: teamrepo.RoleSales, Status: teamrepo.StatusActive}
	r2 := teamrepo.Member{ID: uuid.New(), Name: "R2", Role: teamrepo.RoleSales, Status: teamrepo.StatusActive}
	away := teamrepo.Member{ID: uuid.New(), Name: "Away", Role: teamrepo.RoleSales, Status: teamrepo.StatusAway}
	boss := teamrepo.Member{ID: uuid.New(), Name: "Boss", Role: teamrepo.RoleManager, Status: teamrepo.StatusActive}
	svc, leads := newScenario(engine.MethodRoundRobin, r1, away, boss, r2)

	org, actor := uuid.New(), uuid.New()
	for _, name := range []string{"A", "B", "C"} {
		resp, err := svc.Create(context.Background(), org, actor, transport.CreateLeadRequest{Name: name})
		require.NoError(t, err)
		require.NotNil(t, resp.Created)
	}

	require.Len(t, leads.created, 3)
	want := []uuid.UUID{r1.ID, r2.ID, r1.ID}
	for i, lead := range leads.created {
		require.NotNil(t, lead.OwnerID)
		assert.Equal(t, want[i], *lead.OwnerID, "lead %d", i)
		assert.Equal(t, "lead", lead.Stage)
		assert.Equal(t, 10, lead.Probability)
	}
}

func TestCreateLeavesLeadUnassignedWithoutEligibleReps(t *testing.T) {
	away := teamrepo.Member{ID: uuid.New(), Name: "Away", Role: teamrepo.RoleSales, Status: teamrepo.StatusAway}
	svc, leads := newScenario(engine.MethodRoundRobin, away)

	resp, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateLeadRequest{Name: "Solo"})
	require.NoError(t, err)
	require.NotNil(t, resp.Created)
	assert.Nil(t, resp.Created.Owner.Value)
	require.Len(t, leads.created, 1)
	assert.Nil(t, leads.created[0].OwnerID)
}

func TestExplicitInactiveOwnerIsRejected(t *testing.T) {
	gone := teamrepo.Member{ID: uuid.New(), Name: "Gone", Role: teamrepo.RoleSales, Status: teamrepo.StatusInactive}
	svc, leads := newScenario(engine.MethodRoundRobin, gone)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateLeadRequest{
		Name:  "Direct",
		Owner: transport.Owner(&gone.ID),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, leads.created)
}
