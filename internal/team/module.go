// Package team provides the team roster bounded context module.
package team

import (
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/team/handler"
	"salesflow_backend/internal/team/repository"
	"salesflow_backend/internal/team/service"
	"salesflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool))
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "team"
}

// Service returns the roster service for the distribution and leads adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/team"), ctx.Manager.Group("/team"))
}

var _ apphttp.Module = (*Module)(nil)
