// Package leads provides the lead lifecycle bounded context: intake with
// duplicate detection and distribution, stage transitions, ownership and
// the activity timeline.
package leads

import (
	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/documents"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/handler"
	"salesflow_backend/internal/leads/lifecycle"
	"salesflow_backend/internal/leads/management"
	"salesflow_backend/internal/leads/notes"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/validator"
)

// Deps are the collaborators owned by other modules, bridged by adapters.
type Deps struct {
	Repo        *repository.Repository
	Boards      management.BoardProvider
	Distributor management.Distributor
	Members     management.Members
	Tasks       conflict.TaskScheduler
	Names       conflict.ActorNames
	// Documents may be nil when object storage is not configured.
	Documents documents.ObjectStore
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	lifecycle  *lifecycle.Service
}

func NewModule(deps Deps, tx db.Transactor, eventBus events.Bus, val *validator.Validator, cfg config.LeadsConfig, log *logger.Logger) *Module {
	resolver := conflict.New(deps.Repo, deps.Tasks, deps.Names, tx, eventBus, log)
	mgmt := management.New(deps.Repo, deps.Distributor, deps.Members, resolver, deps.Boards, tx, eventBus, log, management.Options{
		BulkConcurrency: cfg.GetBulkReassignConcurrency(),
		PhoneRegion:     cfg.GetPhoneDefaultRegion(),
	})
	life := lifecycle.New(deps.Repo, deps.Boards, tx, eventBus, log, domain.Policy{
		PreserveProbabilityOverride: cfg.GetPreserveProbabilityOverride(),
	})

	return &Module{
		handler: handler.New(handler.Services{
			Management: mgmt,
			Lifecycle:  life,
			Conflicts:  resolver,
			Notes:      notes.New(deps.Repo),
			Documents:  documents.New(deps.Repo, deps.Documents),
		}, val),
		management: mgmt,
		lifecycle:  life,
	}
}

func (m *Module) Name() string {
	return "leads"
}

// Management exposes lead ownership operations.
func (m *Module) Management() *management.Service {
	return m.management
}

// Lifecycle exposes stage transitions.
func (m *Module) Lifecycle() *lifecycle.Service {
	return m.lifecycle
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"), ctx.Manager.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
