package adapters

import (
	"context"

	"salesflow_backend/internal/distribution/engine"
	"salesflow_backend/internal/leads/management"

	"github.com/google/uuid"
)

// Assigner is the distribution engine entry point.
type Assigner interface {
	Assign(ctx context.Context, organizationID uuid.UUID) (engine.Decision, error)
}

// LeadDistributor lets lead management call the distribution engine.
type LeadDistributor struct {
	engine Assigner
}

func NewLeadDistributor(e Assigner) *LeadDistributor {
	return &LeadDistributor{engine: e}
}

func (a *LeadDistributor) Assign(ctx context.Context, organizationID uuid.UUID) (management.Assignment, error) {
	d, err := a.engine.Assign(ctx, organizationID)
	if err != nil {
		return management.Assignment{}, err
	}
	return management.Assignment{OwnerID: d.OwnerID, Method: d.Method, Reason: d.Reason}, nil
}

var _ management.Distributor = (*LeadDistributor)(nil)
