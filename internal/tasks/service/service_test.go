package service

import (
	"context"
	"testing"
	"time"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/tasks/repository"
	"salesflow_backend/internal/tasks/transport"
	"salesflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	tasks map[uuid.UUID]repository.Task
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: make(map[uuid.UUID]repository.Task)}
}

func (m *memoryRepo) Create(_ context.Context, p repository.CreateTaskParams) (repository.Task, error) {
	task := repository.Task{
		ID: uuid.New(), OrganizationID: p.OrganizationID, Title: p.Title, Type: p.Type,
		Priority: p.Priority, Status: repository.StatusOpen, DueDate: p.DueDate,
		AssignedTo: p.AssignedTo, RelatedLeadID: p.RelatedLeadID, Description: p.Description,
		CreatedBy: p.CreatedBy, CreatedAt: time.Now(),
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id, org uuid.UUID) (repository.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OrganizationID != org {
		return repository.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) List(_ context.Context, p repository.ListParams) ([]repository.Task, error) {
	out := make([]repository.Task, 0)
	for _, t := range m.tasks {
		if t.OrganizationID != p.OrganizationID {
			continue
		}
		if p.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *p.AssignedTo) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryRepo) Complete(_ context.Context, id, org uuid.UUID) (repository.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OrganizationID != org || t.Status != repository.StatusOpen {
		return repository.Task{}, repository.ErrNotFound
	}
	now := time.Now()
	t.Status = repository.StatusDone
	t.CompletedAt = &now
	m.tasks[id] = t
	return t, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

func TestCreateDefaultsAssigneeToActorAndAnnounces(t *testing.T) {
	bus := &recordingBus{}
	svc := New(newMemoryRepo(), bus)
	org, actor := uuid.New(), uuid.New()

	resp, err := svc.Create(context.Background(), org, actor, transport.CreateTaskRequest{
		Title: "Call back", Type: repository.TypeCall, DueDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NotNil(t, resp.AssignedTo)
	assert.Equal(t, actor, *resp.AssignedTo)
	assert.Equal(t, repository.PriorityMedium, resp.Priority)
	require.Len(t, bus.published, 1)
	assert.Equal(t, "tasks.task.assigned", bus.published[0].EventName())
}

func TestStoreDoesNotAnnounce(t *testing.T) {
	bus := &recordingBus{}
	svc := New(newMemoryRepo(), bus)

	_, err := svc.Store(context.Background(), repository.CreateTaskParams{
		OrganizationID: uuid.New(), Title: "Conflict", Type: repository.TypeConflict,
		Priority: repository.PriorityHigh, DueDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Empty(t, bus.published)
}

func TestCompleteRequiresAssigneeOrManager(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, &recordingBus{})
	org, owner, stranger := uuid.New(), uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), org, owner, transport.CreateTaskRequest{
		Title: "Send proposal", Type: repository.TypeEmail, DueDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), org, created.ID, stranger, false)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	done, err := svc.Complete(context.Background(), org, created.ID, stranger, true)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusDone, done.Status)

	again, err := svc.Complete(context.Background(), org, created.ID, owner, false)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusDone, again.Status)
}
