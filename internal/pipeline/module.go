// Package pipeline provides the pipeline configuration bounded context module.
package pipeline

import (
	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/pipeline/handler"
	"salesflow_backend/internal/pipeline/repository"
	"salesflow_backend/internal/pipeline/service"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the store. cache may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, stats service.StageStats, tx db.Transactor, cache service.ColumnCache, eventBus events.Bus, val *validator.Validator, cfg config.PipelineConfig, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), stats, tx, eventBus, log, service.Options{
		Cache: cache,
		TTL:   cfg.GetPipelineCacheTTL(),
	})
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service exposes the configuration store to other modules through adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/pipeline"), ctx.Manager.Group("/pipeline"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
