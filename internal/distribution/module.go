// Package distribution provides the lead distribution bounded context module.
package distribution

import (
	"salesflow_backend/internal/distribution/engine"
	"salesflow_backend/internal/distribution/handler"
	"salesflow_backend/internal/distribution/repository"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *engine.Service
}

func NewModule(pool *pgxpool.Pool, roster engine.Roster, workload engine.Workload, tx db.Transactor, val *validator.Validator, log *logger.Logger) *Module {
	svc := engine.NewService(repository.New(pool), roster, workload, tx, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "distribution"
}

// Service returns the engine used by lead creation and release.
func (m *Module) Service() *engine.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/distribution"), ctx.Manager.Group("/distribution"))
}

var _ apphttp.Module = (*Module)(nil)
