package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/notification/inapp"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryInbox struct {
	mu    sync.Mutex
	items []inapp.Notification
}

func (s *memoryInbox) Create(_ context.Context, p inapp.CreateParams) (inapp.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := inapp.Notification{ID: p.ID, OrganizationID: p.OrganizationID, UserID: p.UserID, Kind: p.Kind, Title: p.Title, Body: p.Body, LeadID: p.LeadID}
	s.items = append(s.items, n)
	return n, nil
}

func (s *memoryInbox) List(context.Context, uuid.UUID, uuid.UUID, int, int) ([]inapp.Notification, int, error) {
	return s.items, len(s.items), nil
}

func (s *memoryInbox) CountUnread(context.Context, uuid.UUID, uuid.UUID) (int, error) {
	return len(s.items), nil
}

func (s *memoryInbox) MarkRead(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error { return nil }
func (s *memoryInbox) MarkAllRead(context.Context, uuid.UUID, uuid.UUID) error         { return nil }

type recordingQueue struct {
	err  error
	sent []inapp.SendParams
}

func (q *recordingQueue) EnqueueNotification(_ context.Context, p inapp.SendParams) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, p)
	return nil
}

func TestLeadAssignedNotifiesNewOwnerInline(t *testing.T) {
	inbox := &memoryInbox{}
	m := newModule(inbox, nil, logger.Nop())
	owner, manager, lead := uuid.New(), uuid.New(), uuid.New()

	err := m.Handle(context.Background(), events.LeadAssigned{
		LeadID:       lead,
		TenantID:     uuid.New(),
		LeadName:     "Acme",
		NewOwnerID:   &owner,
		AssignedByID: &manager,
		Method:       "bulk_reassign",
	})
	require.NoError(t, err)

	require.Len(t, inbox.items, 1)
	got := inbox.items[0]
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, inapp.KindLeadAssigned, got.Kind)
	assert.Equal(t, "Acme was assigned to you.", got.Body)
	assert.Equal(t, &lead, got.LeadID)
}

func TestNoNotificationForUnassignedOrSelfAssignment(t *testing.T) {
	inbox := &memoryInbox{}
	m := newModule(inbox, nil, logger.Nop())
	rep := uuid.New()

	require.NoError(t, m.Handle(context.Background(), events.LeadAssigned{TenantID: uuid.New()}))
	require.NoError(t, m.Handle(context.Background(), events.LeadAssigned{TenantID: uuid.New(), NewOwnerID: &rep, AssignedByID: &rep}))
	require.NoError(t, m.Handle(context.Background(), events.TaskAssigned{TenantID: uuid.New(), Title: "Call back"}))

	assert.Empty(t, inbox.items)
}

func TestTaskAssignedGoesThroughQueue(t *testing.T) {
	inbox := &memoryInbox{}
	queue := &recordingQueue{}
	m := newModule(inbox, queue, logger.Nop())
	owner := uuid.New()

	err := m.Handle(context.Background(), events.TaskAssigned{
		TaskID:     uuid.New(),
		TenantID:   uuid.New(),
		AssignedTo: &owner,
		Title:      "Duplicate registration: Acme",
		Priority:   "high",
	})
	require.NoError(t, err)

	require.Len(t, queue.sent, 1)
	assert.Equal(t, "New high-priority task", queue.sent[0].Title)
	assert.NotEqual(t, uuid.Nil, queue.sent[0].ID)
	assert.Empty(t, inbox.items)
}

func TestQueueFailureFallsBackToInline(t *testing.T) {
	inbox := &memoryInbox{}
	m := newModule(inbox, &recordingQueue{err: errors.New("redis down")}, logger.Nop())
	owner := uuid.New()

	err := m.Handle(context.Background(), events.TaskAssigned{TenantID: uuid.New(), AssignedTo: &owner, Title: "Follow up"})
	require.NoError(t, err)
	assert.Len(t, inbox.items, 1)
}
