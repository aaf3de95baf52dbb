// Package service manages the tenant's team roster.
package service

import (
	"context"
	"errors"
	"strings"

	"salesflow_backend/internal/team/repository"
	"salesflow_backend/internal/team/transport"
	"salesflow_backend/platform/apperr"

	"github.com/google/uuid"
)

const msgMemberNotFound = "team member not found"

// Repository defines the data access interface needed by the team service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateMemberParams) (repository.Member, error)
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (repository.Member, error)
	ListRoster(ctx context.Context, organizationID uuid.UUID) ([]repository.Member, error)
	Update(ctx context.Context, id, organizationID uuid.UUID, params repository.UpdateMemberParams) (repository.Member, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, req transport.CreateMemberRequest) (transport.MemberResponse, error) {
	status := req.Status
	if status == "" {
		status = repository.StatusActive
	}

	member, err := s.repo.Create(ctx, repository.CreateMemberParams{
		ID:             req.ID,
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Role:           req.Role,
		Status:         status,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return transport.MemberResponse{}, apperr.Conflict("a team member with this email already exists")
	}
	if err != nil {
		return transport.MemberResponse{}, apperr.Persistence("create team member", err)
	}
	return ToResponse(member), nil
}

func (s *Service) Update(ctx context.Context, organizationID, id uuid.UUID, req transport.UpdateMemberRequest) (transport.MemberResponse, error) {
	params := repository.UpdateMemberParams{Role: req.Role, Status: req.Status}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return transport.MemberResponse{}, apperr.Validation("name cannot be empty")
		}
		params.Name = &name
	}

	member, err := s.repo.Update(ctx, id, organizationID, params)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.MemberResponse{}, apperr.NotFound(msgMemberNotFound)
	}
	if err != nil {
		return transport.MemberResponse{}, apperr.Persistence("update team member", err)
	}
	return ToResponse(member), nil
}

func (s *Service) Get(ctx context.Context, organizationID, id uuid.UUID) (repository.Member, error) {
	member, err := s.repo.GetByID(ctx, id, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Member{}, apperr.NotFound(msgMemberNotFound)
	}
	if err != nil {
		return repository.Member{}, apperr.Persistence("load team member", err)
	}
	return member, nil
}

// Roster returns all members in roster order (created_at, id).
func (s *Service) Roster(ctx context.Context, organizationID uuid.UUID) ([]repository.Member, error) {
	members, err := s.repo.ListRoster(ctx, organizationID)
	if err != nil {
		return nil, apperr.Persistence("load team roster", err)
	}
	return members, nil
}

func (s *Service) List(ctx context.Context, organizationID uuid.UUID) (transport.MemberListResponse, error) {
	members, err := s.Roster(ctx, organizationID)
	if err != nil {
		return transport.MemberListResponse{}, err
	}
	items := make([]transport.MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, ToResponse(m))
	}
	return transport.MemberListResponse{Items: items}, nil
}

func ToResponse(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}
