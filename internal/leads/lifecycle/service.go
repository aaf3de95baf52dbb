// Package lifecycle executes pipeline stage transitions. Validation is done
// by domain.PlanTransition; this package owns the transaction and the
// side effects around it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/metrics"

	"github.com/google/uuid"
)

// LeadStore is the lead persistence a transition needs.
type LeadStore interface {
	GetForUpdate(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	ApplyTransition(ctx context.Context, id, organizationID uuid.UUID, params repository.TransitionParams) (repository.Lead, error)
	CreateNote(ctx context.Context, params repository.CreateNoteParams) (repository.Note, error)
}

// BoardProvider returns the tenant's current set of valid stages.
type BoardProvider interface {
	Board(ctx context.Context, organizationID uuid.UUID) (domain.Board, error)
}

type Service struct {
	leads  LeadStore
	boards BoardProvider
	tx     db.Transactor
	bus    events.Bus
	log    *logger.Logger
	policy domain.Policy
	now    func() time.Time
}

func New(leads LeadStore, boards BoardProvider, tx db.Transactor, bus events.Bus, log *logger.Logger, policy domain.Policy) *Service {
	return &Service{leads: leads, boards: boards, tx: tx, bus: bus, log: log, policy: policy, now: time.Now}
}

// MoveStage moves a lead to req.Target. An unknown stage or an incomplete
// Won/Lost payload is rejected before anything is written. Moving a lead to
// its current stage returns it unchanged.
func (s *Service) MoveStage(ctx context.Context, organizationID, actorID, leadID uuid.UUID, req domain.TransitionRequest) (repository.Lead, error) {
	board, err := s.boards.Board(ctx, organizationID)
	if err != nil {
		return repository.Lead{}, apperr.Persistence("load pipeline", err)
	}
	if !board.Has(req.Target) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown stage %q", req.Target))
	}

	var (
		lead repository.Lead
		plan domain.Plan
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.leads.GetForUpdate(ctx, leadID, organizationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return apperr.Persistence("load lead", err)
		}

		plan, err = domain.PlanTransition(board, domain.LeadState{
			Stage:       current.Stage,
			Probability: current.Probability,
			Value:       current.Value,
			WonData:     current.WonData,
		}, req, s.policy, s.now())
		if err != nil {
			return err
		}
		if plan.Noop {
			lead = current
			return nil
		}

		if plan.LostNote != "" {
			if _, err := s.leads.CreateNote(ctx, repository.CreateNoteParams{
				OrganizationID: organizationID,
				LeadID:         leadID,
				AuthorID:       &actorID,
				Type:           repository.NoteTypeLostReason,
				Content:        plan.LostNote,
			}); err != nil {
				return apperr.Persistence("record lost reason", err)
			}
		}

		lead, err = s.leads.ApplyTransition(ctx, leadID, organizationID, repository.TransitionParams{
			Stage:       plan.Stage,
			Probability: plan.Probability,
			Value:       plan.Value,
			WonData:     plan.WonData,
			Activity:    plan.Activity,
		})
		if err != nil {
			return apperr.Persistence("update stage", err)
		}
		return nil
	})
	if err != nil {
		return repository.Lead{}, err
	}
	if plan.Noop {
		return lead, nil
	}

	s.announce(ctx, organizationID, actorID, plan, lead)
	return lead, nil
}

func (s *Service) announce(ctx context.Context, organizationID, actorID uuid.UUID, plan domain.Plan, lead repository.Lead) {
	event := events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  organizationID,
		ActorID:   actorID,
		OldStage:  plan.FromStage,
		NewStage:  plan.Stage,
	}
	if plan.LostReason != nil {
		event.LostReason = plan.LostReason.Label
	}
	if plan.WonData != nil {
		price := plan.WonData.FinalPrice
		event.FinalPrice = &price
	}
	s.bus.Publish(ctx, event)

	metrics.RecordStageTransition(plan.Stage)
	s.log.WithContext(ctx).DomainEvent("lead_stage_changed",
		"lead_id", lead.ID.String(),
		"from", plan.FromStage,
		"to", plan.Stage,
	)
}
