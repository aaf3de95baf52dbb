// Package tasks provides the follow-up task bounded context module.
package tasks

import (
	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/tasks/handler"
	"salesflow_backend/internal/tasks/repository"
	"salesflow_backend/internal/tasks/service"
	"salesflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), eventBus)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "tasks"
}

// Service returns the task service for the conflict resolver adapter.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tasks"))
}

var _ apphttp.Module = (*Module)(nil)
