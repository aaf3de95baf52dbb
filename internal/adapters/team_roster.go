package adapters

import (
	"context"

	"salesflow_backend/internal/distribution/engine"
	"salesflow_backend/internal/leads/conflict"
	"salesflow_backend/internal/leads/management"
	teamrepo "salesflow_backend/internal/team/repository"
	"salesflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// TeamReader is the part of the team service the other modules read.
type TeamReader interface {
	Get(ctx context.Context, organizationID, id uuid.UUID) (teamrepo.Member, error)
	Roster(ctx context.Context, organizationID uuid.UUID) ([]teamrepo.Member, error)
}

// TeamRoster exposes team members to distribution and lead management.
type TeamRoster struct {
	team TeamReader
}

func NewTeamRoster(team TeamReader) *TeamRoster {
	return &TeamRoster{team: team}
}

// ListRoster returns members in roster order for the distribution engine.
func (a *TeamRoster) ListRoster(ctx context.Context, organizationID uuid.UUID) ([]engine.Member, error) {
	members, err := a.team.Roster(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Member, 0, len(members))
	for _, m := range members {
		out = append(out, engine.Member{ID: m.ID, Name: m.Name, Role: m.Role, Status: m.Status})
	}
	return out, nil
}

// Lookup resolves an explicit owner or reassignment target.
func (a *TeamRoster) Lookup(ctx context.Context, organizationID, memberID uuid.UUID) (management.Member, error) {
	m, err := a.team.Get(ctx, organizationID, memberID)
	if apperr.Is(err, apperr.KindNotFound) {
		return management.Member{}, management.ErrUnknownMember
	}
	if err != nil {
		return management.Member{}, err
	}
	return management.Member{
		ID:     m.ID,
		Name:   m.Name,
		Active: m.Status != teamrepo.StatusInactive,
		Seller: m.Role != teamrepo.RoleSupport,
	}, nil
}

// DisplayName returns the member's name for notes written on their behalf.
func (a *TeamRoster) DisplayName(ctx context.Context, organizationID, memberID uuid.UUID) (string, error) {
	m, err := a.team.Get(ctx, organizationID, memberID)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

var (
	_ engine.Roster       = (*TeamRoster)(nil)
	_ management.Members  = (*TeamRoster)(nil)
	_ conflict.ActorNames = (*TeamRoster)(nil)
)
