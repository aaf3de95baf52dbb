package adapters

import (
	"context"

	"salesflow_backend/internal/distribution/engine"
	leadsrepo "salesflow_backend/internal/leads/repository"
	pipelinesvc "salesflow_backend/internal/pipeline/service"

	"github.com/google/uuid"
)

// LeadCounter is the part of the lead repository used for load and totals.
type LeadCounter interface {
	CountActiveByOwner(ctx context.Context, organizationID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error)
	StageTotals(ctx context.Context, organizationID uuid.UUID) ([]leadsrepo.StageTotal, error)
}

// LeadWorkload reports open lead load to distribution and per-stage totals
// to the pipeline forecast.
type LeadWorkload struct {
	leads LeadCounter
}

func NewLeadWorkload(leads LeadCounter) *LeadWorkload {
	return &LeadWorkload{leads: leads}
}

func (a *LeadWorkload) CountActiveByOwner(ctx context.Context, organizationID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return a.leads.CountActiveByOwner(ctx, organizationID, ownerIDs)
}

func (a *LeadWorkload) StageTotals(ctx context.Context, organizationID uuid.UUID) ([]pipelinesvc.StageTotal, error) {
	totals, err := a.leads.StageTotals(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]pipelinesvc.StageTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, pipelinesvc.StageTotal{Stage: t.Stage, Count: t.Count, Value: t.Value})
	}
	return out, nil
}

var (
	_ engine.Workload        = (*LeadWorkload)(nil)
	_ pipelinesvc.StageStats = (*LeadWorkload)(nil)
)
