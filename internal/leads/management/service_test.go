package management

import (
	"context"
	"errors"
	"sync"
	"testing"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]repository.Lead
	failOwner map[uuid.UUID]error
	lastList  repository.ListParams
}

func newMemRepo() *memRepo {
	return &memRepo{leads: map[uuid.UUID]repository.Lead{}, failOwner: map[uuid.UUID]error{}}
}

func (m *memRepo) put(l repository.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[l.ID] = l
}

func (m *memRepo) Create(_ context.Context, p repository.CreateLeadParams) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := repository.Lead{
		ID: p.ID, OrganizationID: p.OrganizationID, Name: p.Name, Company: p.Company,
		Email: p.Email, Phone: p.Phone, Value: p.Value, Stage: p.Stage, OwnerID: p.OwnerID,
		Probability: p.Probability, Source: p.Source, Tags: p.Tags, ProductInterests: p.ProductInterests,
		BANT: p.BANT, LastActivity: p.LastActivity,
	}
	m.leads[l.ID] = l
	return l, nil
}

func (m *memRepo) GetByID(_ context.Context, id, org uuid.UUID) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id, org uuid.UUID) (repository.Lead, error) {
	return m.GetByID(ctx, id, org)
}

func (m *memRepo) List(_ context.Context, p repository.ListParams) ([]repository.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = p
	return []repository.Lead{}, 0, nil
}

func (m *memRepo) Update(_ context.Context, id, org uuid.UUID, p repository.UpdateLeadParams) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, repository.ErrNotFound
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = p.Email
	}
	if p.Tags != nil {
		l.Tags = *p.Tags
	}
	if p.Probability != nil {
		l.Probability = *p.Probability
	}
	m.leads[id] = l
	return l, nil
}

func (m *memRepo) ClaimIfUnassigned(_ context.Context, id, org, owner uuid.UUID, activity string) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, repository.ErrNotFound
	}
	if l.OwnerID != nil {
		return repository.Lead{}, repository.ErrAlreadyClaimed
	}
	l.OwnerID = &owner
	l.LastActivity = activity
	m.leads[id] = l
	return l, nil
}

func (m *memRepo) SetOwner(_ context.Context, id, org uuid.UUID, owner *uuid.UUID, activity string) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOwner[id]; err != nil {
		return repository.Lead{}, err
	}
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, repository.ErrNotFound
	}
	l.OwnerID = owner
	l.LastActivity = activity
	m.leads[id] = l
	return l, nil
}

func (m *memRepo) ListNotes(context.Context, uuid.UUID, uuid.UUID) ([]repository.Note, error) {
	return []repository.Note{{ID: uuid.New(), Content: "hello"}}, nil
}

func (m *memRepo) ListHistory(context.Context, uuid.UUID, uuid.UUID) ([]repository.HistoryEvent, error) {
	return nil, nil
}

func (m *memRepo) ListDocuments(context.Context, uuid.UUID, uuid.UUID) ([]repository.Document, error) {
	return nil, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leads)
}

type MockDistributor struct {
	mock.Mock
}

func (m *MockDistributor) Assign(ctx context.Context, org uuid.UUID) (Assignment, error) {
	args := m.Called(ctx, org)
	return args.Get(0).(Assignment), args.Error(1)
}

type staticMembers map[uuid.UUID]Member

func (s staticMembers) Lookup(_ context.Context, _ uuid.UUID, id uuid.UUID) (Member, error) {
	m, ok := s[id]
	if !ok {
		return Member{}, ErrUnknownMember
	}
	return m, nil
}

type stubDetector struct {
	info conflict.Info
}

func (s stubDetector) Detect(context.Context, uuid.UUID, uuid.UUID, *string, *string) (conflict.Info, error) {
	if s.info.Outcome == "" {
		return conflict.Info{Outcome: conflict.OutcomeNone}, nil
	}
	return s.info, nil
}

type staticBoard struct{}

func (staticBoard) Board(context.Context, uuid.UUID) (domain.Board, error) {
	return domain.NewBoard([]domain.Column{{Key: "lead", Title: "Inbox", Probability: 15}}), nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	org, actor, rep, inactive uuid.UUID
	support                   uuid.UUID
	repo                      *memRepo
	dist                      *MockDistributor
	bus                       *recordingBus
	svc                       *Service
}

func newFixture(detector DuplicateDetector) fixture {
	f := fixture{org: uuid.New(), actor: uuid.New(), rep: uuid.New(), inactive: uuid.New(), support: uuid.New()}
	f.repo = newMemRepo()
	f.dist = &MockDistributor{}
	f.bus = &recordingBus{}
	members := staticMembers{
		f.actor:    {ID: f.actor, Name: "Sam", Active: true, Seller: true},
		f.rep:      {ID: f.rep, Name: "Rita", Active: true, Seller: true},
		f.inactive: {ID: f.inactive, Name: "Ivo", Active: false, Seller: true},
		f.support:  {ID: f.support, Name: "Sue", Active: true, Seller: false},
	}
	if detector == nil {
		detector = stubDetector{}
	}
	f.svc = New(f.repo, f.dist, members, detector, staticBoard{}, passthroughTx{}, f.bus, logger.Nop(), Options{BulkConcurrency: 4})
	return f
}

func (f fixture) seed(owner *uuid.UUID) repository.Lead {
	l := repository.Lead{ID: uuid.New(), OrganizationID: f.org, Name: "Lead", Stage: "lead", OwnerID: owner}
	f.repo.put(l)
	return l
}

func TestCreateRoutesThroughDistribution(t *testing.T) {
	f := newFixture(nil)
	f.dist.On("Assign", mock.Anything, f.org).Return(Assignment{OwnerID: &f.rep, Method: "round_robin"}, nil).Once()

	resp, err := f.svc.Create(context.Background(), f.org, f.actor, transport.CreateLeadRequest{
		Name:  "  Acme BV ",
		Email: " A@X.com ",
		Phone: "06 12345678",
		Tags:  []string{"vip", "VIP", " trade fair "},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Created)
	assert.Nil(t, resp.Conflict)

	created := resp.Created
	assert.Equal(t, "Acme BV", created.Name)
	assert.Equal(t, "a@x.com", *created.Email)
	assert.Equal(t, "+31612345678", *created.Phone)
	assert.Equal(t, "lead", created.Stage)
	assert.Equal(t, 15, created.Probability)
	assert.Equal(t, repository.SourceManual, created.Source)
	assert.Equal(t, []string{"vip", "trade fair"}, created.Tags)
	assert.Equal(t, &f.rep, created.Owner.Value)
	assert.Equal(t, []string{"leads.lead.created", "leads.lead.assigned"}, f.bus.names())
	f.dist.AssertExpectations(t)
}

func TestCreateReadsPhoneInConfiguredRegion(t *testing.T) {
	f := newFixture(nil)
	svc := New(f.repo, f.dist, staticMembers{}, stubDetector{}, staticBoard{}, passthroughTx{}, f.bus, logger.Nop(), Options{PhoneRegion: "US"})

	resp, err := svc.Create(context.Background(), f.org, f.actor, transport.CreateLeadRequest{
		Name:  "Acme Inc",
		Phone: "(201) 555-0123",
		Owner: transport.Owner(nil),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Created)
	assert.Equal(t, "+12015550123", *resp.Created.Phone)
}

func TestCreateWithDistributionDisabledIsUnassigned(t *testing.T) {
	f := newFixture(nil)
	f.dist.On("Assign", mock.Anything, f.org).Return(Assignment{Method: "round_robin", Reason: "disabled"}, nil)

	resp, err := f.svc.Create(context.Background(), f.org, f.actor, transport.CreateLeadRequest{Name: "Acme"})
	require.NoError(t, err)
	assert.Nil(t, resp.Created.Owner.Value)
	assert.Equal(t, []string{"leads.lead.created"}, f.bus.names())
}

func TestCreateStopsOnDuplicate(t *testing.T) {
	existing := uuid.New()
	owner := uuid.New()
	f := newFixture(stubDetector{info: conflict.Info{
		Outcome:          conflict.OutcomeOwnedByOther,
		MatchedOn:        "email",
		ExistingLeadID:   existing,
		ExistingLeadName: "Acme",
		ExistingOwner:    &owner,
	}})

	resp, err := f.svc.Create(context.Background(), f.org, f.actor, transport.CreateLeadRequest{Name: "Acme", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Nil(t, resp.Created)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, existing, resp.Conflict.ExistingLeadID)
	assert.Equal(t, 0, f.repo.count())
	f.dist.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestCreateWithExplicitOwner(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.org, f.actor, transport.CreateLeadRequest{Name: "Acme", Owner: transport.Owner(&f.rep)})
	require.NoError(t, err)
	assert.Equal(t, &f.rep, resp.Created.Owner.Value)

	resp, err = f.svc.Create(ctx, f.org, f.actor, transport.CreateLeadRequest{Name: "Beta", Owner: transport.Owner(nil)})
	require.NoError(t, err)
	assert.Nil(t, resp.Created.Owner.Value)

	_, err = f.svc.Create(ctx, f.org, f.actor, transport.CreateLeadRequest{Name: "Gamma", Owner: transport.Owner(&f.inactive)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stranger := uuid.New()
	_, err = f.svc.Create(ctx, f.org, f.actor, transport.CreateLeadRequest{Name: "Delta", Owner: transport.Owner(&stranger)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, 2, f.repo.count())
	f.dist.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestCreateDistributionFailureWritesNothing(t *testing.T) {
	f := newFixture(nil)
	f.dist.On("Assign", mock.Anything, f.org).Return(Assignment{}, errors.New("lock timeout"))

	_, err := f.svc.Create(context.Background(), f.org, f.actor, transport.CreateLeadRequest{Name: "Acme"})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.Equal(t, 0, f.repo.count())
	assert.Empty(t, f.bus.names())
}

func TestClaimOnlyWhenUnassigned(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	lead := f.seed(nil)

	resp, err := f.svc.Claim(ctx, f.org, f.actor, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.Owner.Value)
	assert.Equal(t, f.actor, *resp.Owner.Value)

	_, err = f.svc.Claim(ctx, f.org, f.rep, lead.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "lead already claimed", err.Error())

	_, err = f.svc.Claim(ctx, f.org, f.actor, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestClaimRequiresActiveSellerOnRoster(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	lead := f.seed(nil)

	for name, claimant := range map[string]uuid.UUID{
		"not on roster": uuid.New(),
		"inactive":      f.inactive,
		"support role":  f.support,
	} {
		_, err := f.svc.Claim(ctx, f.org, claimant, lead.ID)
		require.Error(t, err, name)
		assert.True(t, apperr.Is(err, apperr.KindForbidden), name)
	}

	got, err := f.repo.GetByID(ctx, lead.ID, f.org)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.Empty(t, f.bus.names())
}

func TestBulkReassignCollectsFailures(t *testing.T) {
	f := newFixture(nil)
	a := f.seed(nil)
	b := f.seed(&f.actor)
	broken := f.seed(nil)
	missing := uuid.New()
	f.repo.failOwner[broken.ID] = errors.New("connection reset")

	resp, err := f.svc.BulkReassign(context.Background(), f.org, f.actor, transport.BulkReassignRequest{
		LeadIDs: []uuid.UUID{a.ID, b.ID, missing, broken.ID, a.ID},
		Target:  transport.Owner(&f.rep),
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, resp.Succeeded)
	assert.Equal(t, []transport.BulkFailure{
		{ID: missing, Error: "not found"},
		{ID: broken.ID, Error: "temporarily unavailable"},
	}, resp.Failed)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, _ := f.repo.GetByID(context.Background(), id, f.org)
		assert.Equal(t, &f.rep, got.OwnerID)
	}
	assert.Len(t, f.bus.names(), 2)
}

func TestBulkReassignToUnassigned(t *testing.T) {
	f := newFixture(nil)
	lead := f.seed(&f.rep)

	resp, err := f.svc.BulkReassign(context.Background(), f.org, f.actor, transport.BulkReassignRequest{
		LeadIDs: []uuid.UUID{lead.ID},
		Target:  transport.Owner(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lead.ID}, resp.Succeeded)

	got, _ := f.repo.GetByID(context.Background(), lead.ID, f.org)
	assert.Nil(t, got.OwnerID)
}

func TestBulkReassignValidatesTargetOnce(t *testing.T) {
	f := newFixture(nil)
	lead := f.seed(nil)
	ctx := context.Background()

	_, err := f.svc.BulkReassign(ctx, f.org, f.actor, transport.BulkReassignRequest{LeadIDs: []uuid.UUID{lead.ID}, Target: transport.Owner(&f.inactive)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.BulkReassign(ctx, f.org, f.actor, transport.BulkReassignRequest{LeadIDs: []uuid.UUID{lead.ID}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, _ := f.repo.GetByID(ctx, lead.ID, f.org)
	assert.Nil(t, got.OwnerID)
}

func TestReleaseRedistributes(t *testing.T) {
	f := newFixture(nil)
	lead := f.seed(&f.actor)
	f.dist.On("Assign", mock.Anything, f.org).Return(Assignment{OwnerID: &f.rep, Method: "load_balanced"}, nil)

	resp, err := f.svc.Release(context.Background(), f.org, f.actor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, &f.rep, resp.Owner.Value)

	require.Len(t, f.bus.events, 1)
	assigned := f.bus.events[0].(events.LeadAssigned)
	assert.Equal(t, &f.actor, assigned.PreviousOwnerID)
	assert.Equal(t, "load_balanced", assigned.Method)
}

func TestListOwnerFilter(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.List(ctx, f.org, f.actor, transport.ListLeadsRequest{Owner: "me"})
	require.NoError(t, err)
	assert.Equal(t, &f.actor, f.repo.lastList.OwnerID)
	assert.Equal(t, 25, f.repo.lastList.Limit)

	_, err = f.svc.List(ctx, f.org, f.actor, transport.ListLeadsRequest{Owner: "Unassigned", Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.True(t, f.repo.lastList.Unassigned)
	assert.Nil(t, f.repo.lastList.OwnerID)
	assert.Equal(t, 20, f.repo.lastList.Offset)

	_, err = f.svc.List(ctx, f.org, f.actor, transport.ListLeadsRequest{Owner: "bob"})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestGetIncludesNotes(t *testing.T) {
	f := newFixture(nil)
	lead := f.seed(nil)

	detail, err := f.svc.Get(context.Background(), f.org, lead.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Notes, 1)
	assert.NotNil(t, detail.History)
	assert.NotNil(t, detail.Documents)
	assert.Equal(t, transport.Unassigned, mustOwnerJSON(t, detail.Owner))
}

func mustOwnerJSON(t *testing.T, o transport.OwnerRef) string {
	t.Helper()
	raw, err := o.MarshalJSON()
	require.NoError(t, err)
	return string(raw[1 : len(raw)-1])
}
