package engine

import (
	"context"
	"log/slog"

	"salesflow_backend/internal/distribution/repository"
	"salesflow_backend/internal/distribution/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/metrics"

	"github.com/google/uuid"
)

// SettingsStore is the persistence used by Service.
type SettingsStore interface {
	Get(ctx context.Context, organizationID uuid.UUID) (repository.Settings, error)
	Lock(ctx context.Context, organizationID uuid.UUID) (repository.Settings, error)
	SaveCursor(ctx context.Context, organizationID uuid.UUID, cursor int) error
	Upsert(ctx context.Context, organizationID uuid.UUID, enabled bool, method string, updatedBy uuid.UUID) (repository.Settings, error)
}

// Roster lists team members in roster order.
type Roster interface {
	ListRoster(ctx context.Context, organizationID uuid.UUID) ([]Member, error)
}

// Workload counts leads per owner whose stage is neither Won nor Lost.
type Workload interface {
	CountActiveByOwner(ctx context.Context, organizationID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type Service struct {
	store    SettingsStore
	roster   Roster
	workload Workload
	tx       db.Transactor
	log      *logger.Logger
}

func NewService(store SettingsStore, roster Roster, workload Workload, tx db.Transactor, log *logger.Logger) *Service {
	return &Service{store: store, roster: roster, workload: workload, tx: tx, log: log}
}

// Assign decides the owner of a new lead. When called inside a transaction
// the settings row lock and the cursor update belong to it, so the cursor
// only advances if the lead write commits.
func (s *Service) Assign(ctx context.Context, organizationID uuid.UUID) (Decision, error) {
	var decision Decision
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		settings, err := s.store.Lock(ctx, organizationID)
		if err != nil {
			return apperr.Persistence("lock distribution settings", err)
		}
		decision = Decision{Method: settings.Method}

		if !settings.Enabled {
			decision.Reason = ReasonDisabled
			return nil
		}

		roster, err := s.roster.ListRoster(ctx, organizationID)
		if err != nil {
			return apperr.Persistence("load roster", err)
		}
		candidates := Eligible(roster)
		if len(candidates) == 0 {
			decision.Reason = ReasonNoEligible
			return nil
		}

		switch settings.Method {
		case MethodLoadBalanced:
			ids := make([]uuid.UUID, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.ID)
			}
			loads, err := s.workload.CountActiveByOwner(ctx, organizationID, ids)
			if err != nil {
				return apperr.Persistence("count active leads", err)
			}
			pick, _ := LeastLoaded(candidates, loads)
			decision.OwnerID = &pick.ID
		default:
			pick, next, _ := NextRoundRobin(candidates, settings.Cursor)
			if err := s.store.SaveCursor(ctx, organizationID, next); err != nil {
				return apperr.Persistence("advance round robin cursor", err)
			}
			decision.Method = MethodRoundRobin
			decision.OwnerID = &pick.ID
		}
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	outcome := "assigned"
	if !decision.Assigned() {
		outcome = "unassigned"
		s.log.WithContext(ctx).Info("lead left unassigned",
			slog.String("organization_id", organizationID.String()),
			slog.String("reason", decision.Reason),
		)
	}
	metrics.RecordAssignment(decision.Method, outcome)
	return decision, nil
}

func (s *Service) Settings(ctx context.Context, organizationID uuid.UUID) (transport.SettingsResponse, error) {
	settings, err := s.store.Get(ctx, organizationID)
	if err != nil {
		return transport.SettingsResponse{}, apperr.Persistence("load distribution settings", err)
	}
	return toResponse(settings), nil
}

func (s *Service) UpdateSettings(ctx context.Context, organizationID, actorID uuid.UUID, req transport.UpdateSettingsRequest) (transport.SettingsResponse, error) {
	if req.Method != MethodRoundRobin && req.Method != MethodLoadBalanced {
		return transport.SettingsResponse{}, apperr.Validation("method must be round_robin or load_balanced")
	}
	enabled := req.Enabled != nil && *req.Enabled

	settings, err := s.store.Upsert(ctx, organizationID, enabled, req.Method, actorID)
	if err != nil {
		return transport.SettingsResponse{}, apperr.Persistence("store distribution settings", err)
	}
	return toResponse(settings), nil
}

func toResponse(s repository.Settings) transport.SettingsResponse {
	resp := transport.SettingsResponse{
		Enabled:   s.Enabled,
		Method:    s.Method,
		Cursor:    s.Cursor,
		UpdatedBy: s.UpdatedBy,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
