// Package repository persists team members.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salesflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("team member not found")
	ErrDuplicateEmail = errors.New("team member email already exists")
)

const memberColumns = `id, organization_id, name, email, role, status, created_at, updated_at`

const rosterQuery = `
	SELECT ` + memberColumns + `
	FROM team_members
	WHERE organization_id = $1
	ORDER BY created_at ASC, id ASC`

const getMemberQuery = `
	SELECT ` + memberColumns + `
	FROM team_members
	WHERE id = $1 AND organization_id = $2`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, params CreateMemberParams) (Member, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO team_members (id, organization_id, name, email, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+memberColumns,
		params.ID, params.OrganizationID, params.Name, params.Email, params.Role, params.Status,
	)
	member, err := scanMember(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Member{}, ErrDuplicateEmail
		}
		return Member{}, err
	}
	return member, nil
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (Member, error) {
	member, err := scanMember(db.Conn(ctx, r.pool).QueryRow(ctx, getMemberQuery, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return member, err
}

// ListRoster returns every member of the tenant in roster order.
func (r *Repository) ListRoster(ctx context.Context, organizationID uuid.UUID) ([]Member, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, rosterQuery, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateMemberParams) (Member, error) {
	sets := make([]string, 0, 4)
	args := []any{id, organizationID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Role != nil {
		add("role", *params.Role)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE team_members SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND organization_id = $2 RETURNING ` + memberColumns

	member, err := scanMember(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return member, err
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.Name, &m.Email, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
