package service

import (
	"context"
	"testing"
	"time"

	"salesflow_backend/internal/team/repository"
	"salesflow_backend/internal/team/transport"
	"salesflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	members map[uuid.UUID]repository.Member
}

func (m *memoryRepo) Create(_ context.Context, p repository.CreateMemberParams) (repository.Member, error) {
	for _, existing := range m.members {
		if existing.OrganizationID == p.OrganizationID && existing.Email == p.Email {
			return repository.Member{}, repository.ErrDuplicateEmail
		}
	}
	member := repository.Member{
		ID: p.ID, OrganizationID: p.OrganizationID, Name: p.Name, Email: p.Email,
		Role: p.Role, Status: p.Status, CreatedAt: time.Now(),
	}
	m.members[p.ID] = member
	return member, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id, org uuid.UUID) (repository.Member, error) {
	member, ok := m.members[id]
	if !ok || member.OrganizationID != org {
		return repository.Member{}, repository.ErrNotFound
	}
	return member, nil
}

func (m *memoryRepo) ListRoster(_ context.Context, org uuid.UUID) ([]repository.Member, error) {
	out := make([]repository.Member, 0)
	for _, member := range m.members {
		if member.OrganizationID == org {
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *memoryRepo) Update(ctx context.Context, id, org uuid.UUID, p repository.UpdateMemberParams) (repository.Member, error) {
	member, err := m.GetByID(ctx, id, org)
	if err != nil {
		return repository.Member{}, err
	}
	if p.Name != nil {
		member.Name = *p.Name
	}
	if p.Role != nil {
		member.Role = *p.Role
	}
	if p.Status != nil {
		member.Status = *p.Status
	}
	m.members[id] = member
	return member, nil
}

func TestCreateNormalizesEmailAndDefaultsStatus(t *testing.T) {
	svc := New(&memoryRepo{members: map[uuid.UUID]repository.Member{}})
	org := uuid.New()

	resp, err := svc.Create(context.Background(), org, transport.CreateMemberRequest{
		ID: uuid.New(), Name: " Ana ", Email: " Ana@Example.COM ", Role: repository.RoleSales,
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", resp.Email)
	assert.Equal(t, "Ana", resp.Name)
	assert.Equal(t, repository.StatusActive, resp.Status)
}

func TestCreateDuplicateEmailIsConflict(t *testing.T) {
	svc := New(&memoryRepo{members: map[uuid.UUID]repository.Member{}})
	org := uuid.New()
	req := transport.CreateMemberRequest{ID: uuid.New(), Name: "A", Email: "a@example.com", Role: repository.RoleSales}

	_, err := svc.Create(context.Background(), org, req)
	require.NoError(t, err)

	req.ID = uuid.New()
	_, err = svc.Create(context.Background(), org, req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateUnknownMemberIsNotFound(t *testing.T) {
	svc := New(&memoryRepo{members: map[uuid.UUID]repository.Member{}})
	status := repository.StatusAway

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), transport.UpdateMemberRequest{Status: &status})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
