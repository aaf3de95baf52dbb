// Package notification turns assignment events into in-app notifications
// for the recipient. Delivery goes through the job queue when one is
// configured and is written inline otherwise.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	notifhandler "salesflow_backend/internal/notification/handler"
	"salesflow_backend/internal/notification/inapp"
	"salesflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queue hands a notification to the background worker.
type Queue interface {
	EnqueueNotification(ctx context.Context, p inapp.SendParams) error
}

type Module struct {
	inApp   *inapp.Service
	handler *notifhandler.HTTPHandler
	queue   Queue
	log     *logger.Logger
}

// New creates the module. queue may be nil.
func New(pool *pgxpool.Pool, queue Queue, log *logger.Logger) *Module {
	return newModule(inapp.NewRepository(pool), queue, log)
}

func newModule(store inapp.Store, queue Queue, log *logger.Logger) *Module {
	svc := inapp.NewService(store, log)
	return &Module{
		inApp:   svc,
		handler: notifhandler.NewHTTPHandler(svc),
		queue:   queue,
		log:     log,
	}
}

func (m *Module) Name() string {
	return "notification"
}

// InApp returns the inbox service; the scheduler worker persists through it.
func (m *Module) InApp() *inapp.Service {
	return m.inApp
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// RegisterHandlers subscribes the module to the events it notifies about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.TaskAssigned{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.TaskAssigned:
		return m.handleTaskAssigned(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.NewOwnerID == nil || sameUser(e.NewOwnerID, e.AssignedByID) {
		return nil
	}
	return m.deliver(ctx, inapp.SendParams{
		ID:     uuid.New(),
		OrgID:  e.TenantID,
		UserID: *e.NewOwnerID,
		Kind:   inapp.KindLeadAssigned,
		Title:  "New lead assigned",
		Body:   fmt.Sprintf("%s was assigned to you.", e.LeadName),
		LeadID: &e.LeadID,
	})
}

func (m *Module) handleTaskAssigned(ctx context.Context, e events.TaskAssigned) error {
	if e.AssignedTo == nil {
		return nil
	}
	title := "New task"
	if e.Priority == "high" {
		title = "New high-priority task"
	}
	return m.deliver(ctx, inapp.SendParams{
		ID:     uuid.New(),
		OrgID:  e.TenantID,
		UserID: *e.AssignedTo,
		Kind:   inapp.KindTaskAssigned,
		Title:  title,
		Body:   e.Title,
		LeadID: e.RelatedLeadID,
	})
}

func (m *Module) deliver(ctx context.Context, p inapp.SendParams) error {
	if m.queue != nil {
		err := m.queue.EnqueueNotification(ctx, p)
		if err == nil {
			return nil
		}
		m.log.WithContext(ctx).Warn("notification enqueue failed, storing inline",
			slog.String("kind", p.Kind),
			slog.String("error", err.Error()),
		)
	}
	_, err := m.inApp.Send(ctx, p)
	return err
}

func sameUser(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
