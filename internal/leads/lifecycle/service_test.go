package lifecycle

import (
	"context"
	"errors"
	"testing"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	leads       map[uuid.UUID]repository.Lead
	notes       []repository.CreateNoteParams
	transitions int
}

func (m *memoryStore) GetForUpdate(_ context.Context, id, org uuid.UUID) (repository.Lead, error) {
	l, ok := m.leads[id]
	if !ok || l.OrganizationID != org {
		return repository.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (m *memoryStore) ApplyTransition(_ context.Context, id, _ uuid.UUID, p repository.TransitionParams) (repository.Lead, error) {
	m.transitions++
	l := m.leads[id]
	l.Stage = p.Stage
	l.Probability = p.Probability
	l.Value = p.Value
	l.WonData = p.WonData
	l.LastActivity = p.Activity
	m.leads[id] = l
	return l, nil
}

func (m *memoryStore) CreateNote(_ context.Context, p repository.CreateNoteParams) (repository.Note, error) {
	m.notes = append(m.notes, p)
	return repository.Note{ID: uuid.New(), LeadID: p.LeadID, Content: p.Content}, nil
}

type MockLeadStore struct {
	mock.Mock
}

func (m *MockLeadStore) GetForUpdate(ctx context.Context, id, org uuid.UUID) (repository.Lead, error) {
	args := m.Called(ctx, id, org)
	return args.Get(0).(repository.Lead), args.Error(1)
}

func (m *MockLeadStore) ApplyTransition(ctx context.Context, id, org uuid.UUID, p repository.TransitionParams) (repository.Lead, error) {
	args := m.Called(ctx, id, org, p)
	return args.Get(0).(repository.Lead), args.Error(1)
}

func (m *MockLeadStore) CreateNote(ctx context.Context, p repository.CreateNoteParams) (repository.Note, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(repository.Note), args.Error(1)
}

type staticBoard struct {
	board domain.Board
	err   error
}

func (b staticBoard) Board(context.Context, uuid.UUID) (domain.Board, error) {
	return b.board, b.err
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.events = append(b.events, e) }

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

var board = domain.NewBoard([]domain.Column{
	{Key: "lead", Title: "New Lead", Probability: 10},
	{Key: "qualified", Title: "Qualified", Probability: 30},
	{Key: "negotiation", Title: "Negotiation", Probability: 70},
})

func price(v float64) *float64 { return &v }

type fixture struct {
	org, actor uuid.UUID
	lead       repository.Lead
	store      *memoryStore
	bus        *recordingBus
	svc        *Service
}

func newFixture(stage string) fixture {
	f := fixture{org: uuid.New(), actor: uuid.New()}
	f.lead = repository.Lead{ID: uuid.New(), OrganizationID: f.org, Name: "Acme", Stage: stage, Probability: 70, Value: 900}
	f.store = &memoryStore{leads: map[uuid.UUID]repository.Lead{f.lead.ID: f.lead}}
	f.bus = &recordingBus{}
	f.svc = New(f.store, staticBoard{board: board}, passthroughTx{}, f.bus, logger.Nop(), domain.Policy{})
	return f
}

func (f fixture) current() repository.Lead { return f.store.leads[f.lead.ID] }

func assertInvariants(t *testing.T, l repository.Lead) {
	t.Helper()
	assert.True(t, board.Has(l.Stage), "stage %q must be on the board", l.Stage)
	assert.Equal(t, l.Stage == domain.StageWon, l.WonData != nil, "wonData must be present iff stage is Won")
}

func TestMoveToLostWithPriceTooHigh(t *testing.T) {
	f := newFixture("negotiation")

	lead, err := f.svc.MoveStage(context.Background(), f.org, f.actor, f.lead.ID, domain.TransitionRequest{
		Target: domain.StageLost,
		Lost:   &domain.LostInput{Reason: "Price too high"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageLost, lead.Stage)
	require.Len(t, f.store.notes, 1)
	assert.Contains(t, f.store.notes[0].Content, "Price too high")
	assert.Equal(t, repository.NoteTypeLostReason, f.store.notes[0].Type)
	assert.Equal(t, &f.actor, f.store.notes[0].AuthorID)
	assertInvariants(t, f.current())

	require.Len(t, f.bus.events, 1)
	changed := f.bus.events[0].(events.LeadStageChanged)
	assert.Equal(t, "negotiation", changed.OldStage)
	assert.Equal(t, "Price too high", changed.LostReason)
}

func TestMoveToWonValidation(t *testing.T) {
	f := newFixture("negotiation")
	ctx := context.Background()

	_, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, domain.TransitionRequest{
		Target: domain.StageWon,
		Won:    &domain.WonInput{Products: []string{}, FinalPrice: price(100)},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 0, f.store.transitions)
	assert.Equal(t, "negotiation", f.current().Stage)

	lead, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, domain.TransitionRequest{
		Target: domain.StageWon,
		Won:    &domain.WonInput{Products: []string{"A"}, FinalPrice: price(100)},
	})
	require.NoError(t, err)
	require.NotNil(t, lead.WonData)
	assert.Equal(t, 100.0, lead.WonData.FinalPrice)
	assert.Equal(t, 100, lead.Probability)
	assertInvariants(t, f.current())
}

func TestMoveToCurrentStageIsIdempotent(t *testing.T) {
	f := newFixture("qualified")
	ctx := context.Background()
	req := domain.TransitionRequest{Target: "qualified"}

	first, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, req)
	require.NoError(t, err)
	second, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, f.lead, second)
	assert.Equal(t, 0, f.store.transitions)
	assert.Empty(t, f.bus.events)
}

func TestUnknownStageRejectedBeforeLoad(t *testing.T) {
	store := &MockLeadStore{}
	svc := New(store, staticBoard{board: board}, passthroughTx{}, &recordingBus{}, logger.Nop(), domain.Policy{})

	_, err := svc.MoveStage(context.Background(), uuid.New(), uuid.New(), uuid.New(), domain.TransitionRequest{Target: "archived"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	store.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestReopeningWonClearsWonData(t *testing.T) {
	f := newFixture("negotiation")
	ctx := context.Background()

	_, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, domain.TransitionRequest{
		Target: domain.StageWon,
		Won:    &domain.WonInput{Products: []string{"A"}, FinalPrice: price(100)},
	})
	require.NoError(t, err)

	lead, err := f.svc.MoveStage(ctx, f.org, f.actor, f.lead.ID, domain.TransitionRequest{Target: "qualified"})
	require.NoError(t, err)
	assert.Nil(t, lead.WonData)
	assert.Equal(t, "Moved to Qualified", lead.LastActivity)
	assertInvariants(t, f.current())
}

func TestPersistenceFailureLeavesLeadUntouched(t *testing.T) {
	org, leadID := uuid.New(), uuid.New()
	lead := repository.Lead{ID: leadID, OrganizationID: org, Stage: "lead", Probability: 10}

	store := &MockLeadStore{}
	store.On("GetForUpdate", mock.Anything, leadID, org).Return(lead, nil)
	store.On("ApplyTransition", mock.Anything, leadID, org, mock.Anything).Return(repository.Lead{}, errors.New("connection reset"))

	bus := &recordingBus{}
	svc := New(store, staticBoard{board: board}, passthroughTx{}, bus, logger.Nop(), domain.Policy{})

	_, err := svc.MoveStage(context.Background(), org, uuid.New(), leadID, domain.TransitionRequest{Target: "qualified"})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.Empty(t, bus.events)
	store.AssertExpectations(t)
}

func TestMissingLeadIsNotFound(t *testing.T) {
	f := newFixture("lead")

	_, err := f.svc.MoveStage(context.Background(), f.org, f.actor, uuid.New(), domain.TransitionRequest{Target: "qualified"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBoardFailureIsUnavailable(t *testing.T) {
	svc := New(&memoryStore{}, staticBoard{err: errors.New("redis down")}, passthroughTx{}, &recordingBus{}, logger.Nop(), domain.Policy{})

	_, err := svc.MoveStage(context.Background(), uuid.New(), uuid.New(), uuid.New(), domain.TransitionRequest{Target: "qualified"})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
}
