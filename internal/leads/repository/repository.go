// Package repository persists leads and their notes, history and documents.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"salesflow_backend/internal/leads/domain"
	"salesflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrAlreadyClaimed = errors.New("lead already claimed")
)

const leadColumns = `id, organization_id, name, company, email, phone, value::float8, stage, owner_id,
	probability, source, tags, product_interests, bant, won_data, last_activity, last_activity_at,
	created_at, updated_at`

const getLeadQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

const listLeadsQuery = `
	SELECT ` + leadColumns + `, COUNT(*) OVER()
	FROM leads
	WHERE organization_id = $1 AND deleted_at IS NULL
		AND ($2::text = '' OR stage = $2)
		AND ($3::uuid IS NULL OR owner_id = $3)
		AND (NOT $4::boolean OR owner_id IS NULL)
		AND ($5::text = '' OR source = $5)
		AND ($6::text = '' OR name ILIKE '%' || $6 || '%' OR company ILIKE '%' || $6 || '%' OR email ILIKE '%' || $6 || '%')
		AND ($7::text = '' OR $7 = ANY(tags))
	ORDER BY created_at DESC, id DESC
	LIMIT $8 OFFSET $9`

const applyTransitionQuery = `
	UPDATE leads
	SET stage = $3, probability = $4, value = $5, won_data = $6,
		last_activity = $7, last_activity_at = now(), updated_at = now()
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	RETURNING ` + leadColumns

const claimQuery = `
	UPDATE leads
	SET owner_id = $3, last_activity = $4, last_activity_at = now(), updated_at = now()
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL AND owner_id IS NULL
	RETURNING ` + leadColumns

const setOwnerQuery = `
	UPDATE leads
	SET owner_id = $3, last_activity = $4, last_activity_at = now(), updated_at = now()
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	RETURNING ` + leadColumns

const findDuplicateQuery = `
	SELECT ` + leadColumns + `,
		CASE WHEN $2::text IS NOT NULL AND lower(email) = $2 THEN 'email' ELSE 'phone' END
	FROM leads
	WHERE organization_id = $1 AND deleted_at IS NULL
		AND (lower(email) = $2::text OR phone = $3::text)
	ORDER BY created_at ASC, id ASC
	LIMIT 1`

const countActiveByOwnerQuery = `
	SELECT owner_id, COUNT(*)
	FROM leads
	WHERE organization_id = $1 AND deleted_at IS NULL
		AND owner_id = ANY($2)
		AND stage NOT IN ('Won', 'Lost')
	GROUP BY owner_id`

const stageTotalsQuery = `
	SELECT stage, COUNT(*), COALESCE(SUM(value), 0)::float8
	FROM leads
	WHERE organization_id = $1 AND deleted_at IS NULL
	GROUP BY stage`

const touchQuery = `
	UPDATE leads
	SET last_activity = $3, last_activity_at = now(), updated_at = now()
	WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	bant, err := jsonParam(params.BANT)
	if err != nil {
		return Lead{}, err
	}
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO leads (id, organization_id, name, company, email, phone, value, stage, owner_id,
			probability, source, tags, product_interests, bant, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+leadColumns,
		params.ID, params.OrganizationID, params.Name, params.Company, params.Email, params.Phone,
		params.Value, params.Stage, params.OwnerID, params.Probability, params.Source,
		nonNil(params.Tags), nonNil(params.ProductInterests), bant, params.LastActivity,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (Lead, error) {
	return r.get(ctx, getLeadQuery, id, organizationID)
}

// GetForUpdate locks the lead row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id, organizationID uuid.UUID) (Lead, error) {
	return r.get(ctx, getLeadQuery+` FOR UPDATE`, id, organizationID)
}

func (r *Repository) get(ctx context.Context, query string, id, organizationID uuid.UUID) (Lead, error) {
	lead, err := scanLead(db.Conn(ctx, r.pool).QueryRow(ctx, query, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// List returns one page of leads and the total number of matches.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, listLeadsQuery,
		params.OrganizationID, params.Stage, params.OwnerID, params.Unassigned, params.Source,
		strings.TrimSpace(params.Search), params.Tag, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	total := 0
	for rows.Next() {
		var (
			lead    Lead
			bant    []byte
			wonData []byte
		)
		if err := rows.Scan(append(leadTargets(&lead, &bant, &wonData), &total)...); err != nil {
			return nil, 0, err
		}
		if err := decodeLeadJSON(&lead, bant, wonData); err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	return leads, total, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateLeadParams) (Lead, error) {
	sets := make([]string, 0, 10)
	args := []any{id, organizationID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Company != nil {
		add("company", *params.Company)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.Value != nil {
		add("value", *params.Value)
	}
	if params.Source != nil {
		add("source", *params.Source)
	}
	if params.Tags != nil {
		add("tags", nonNil(*params.Tags))
	}
	if params.ProductInterests != nil {
		add("product_interests", nonNil(*params.ProductInterests))
	}
	if params.BANT != nil {
		bant, err := jsonParam(params.BANT)
		if err != nil {
			return Lead{}, err
		}
		add("bant", bant)
	}
	if params.Probability != nil {
		add("probability", *params.Probability)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}
	if params.LastActivity != nil {
		add("last_activity", *params.LastActivity)
		sets = append(sets, "last_activity_at = now()")
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE leads SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL RETURNING ` + leadColumns

	return r.one(ctx, query, args...)
}

// ApplyTransition writes stage, probability, value and won data in one statement.
func (r *Repository) ApplyTransition(ctx context.Context, id, organizationID uuid.UUID, params TransitionParams) (Lead, error) {
	wonData, err := jsonParam(params.WonData)
	if err != nil {
		return Lead{}, err
	}
	return r.one(ctx, applyTransitionQuery,
		id, organizationID, params.Stage, params.Probability, params.Value, wonData, params.Activity)
}

// ClaimIfUnassigned sets the owner only while the lead has none.
func (r *Repository) ClaimIfUnassigned(ctx context.Context, id, organizationID, ownerID uuid.UUID, activity string) (Lead, error) {
	lead, err := r.one(ctx, claimQuery, id, organizationID, ownerID, activity)
	if !errors.Is(err, ErrNotFound) {
		return lead, err
	}
	if _, getErr := r.GetByID(ctx, id, organizationID); getErr != nil {
		return Lead{}, getErr
	}
	return Lead{}, ErrAlreadyClaimed
}

// SetOwner overwrites the owner. A nil owner leaves the lead unassigned.
func (r *Repository) SetOwner(ctx context.Context, id, organizationID uuid.UUID, ownerID *uuid.UUID, activity string) (Lead, error) {
	return r.one(ctx, setOwnerQuery, id, organizationID, ownerID, activity)
}

// FindDuplicate returns the oldest lead whose email matches case-insensitively
// or whose phone matches exactly. Email and phone are expected normalized.
func (r *Repository) FindDuplicate(ctx context.Context, organizationID uuid.UUID, email, phone *string) (Duplicate, error) {
	if email == nil && phone == nil {
		return Duplicate{}, ErrNotFound
	}
	var lowered *string
	if email != nil {
		v := strings.ToLower(*email)
		lowered = &v
	}

	var (
		dup     Duplicate
		bant    []byte
		wonData []byte
	)
	row := db.Conn(ctx, r.pool).QueryRow(ctx, findDuplicateQuery, organizationID, lowered, phone)
	if err := row.Scan(append(leadTargets(&dup.Lead, &bant, &wonData), &dup.MatchedOn)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Duplicate{}, ErrNotFound
		}
		return Duplicate{}, err
	}
	if err := decodeLeadJSON(&dup.Lead, bant, wonData); err != nil {
		return Duplicate{}, err
	}
	return dup, nil
}

// CountActiveByOwner counts open leads per owner. Every requested owner
// is present in the result, with zero when it owns nothing open.
func (r *Repository) CountActiveByOwner(ctx context.Context, organizationID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, countActiveByOwnerQuery, organizationID, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ownerID uuid.UUID
			count   int
		)
		if err := rows.Scan(&ownerID, &count); err != nil {
			return nil, err
		}
		counts[ownerID] = count
	}
	return counts, rows.Err()
}

func (r *Repository) StageTotals(ctx context.Context, organizationID uuid.UUID) ([]StageTotal, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, stageTotalsQuery, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]StageTotal, 0)
	for rows.Next() {
		var t StageTotal
		if err := rows.Scan(&t.Stage, &t.Count, &t.Value); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Touch updates the last activity display string.
func (r *Repository) Touch(ctx context.Context, id, organizationID uuid.UUID, activity string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, touchQuery, id, organizationID, activity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (Lead, error) {
	lead, err := scanLead(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func leadTargets(l *Lead, bant, wonData *[]byte) []any {
	return []any{
		&l.ID, &l.OrganizationID, &l.Name, &l.Company, &l.Email, &l.Phone, &l.Value, &l.Stage, &l.OwnerID,
		&l.Probability, &l.Source, &l.Tags, &l.ProductInterests, bant, wonData, &l.LastActivity, &l.LastActivityAt,
		&l.CreatedAt, &l.UpdatedAt,
	}
}

func scanLead(row pgx.Row) (Lead, error) {
	var (
		lead    Lead
		bant    []byte
		wonData []byte
	)
	if err := row.Scan(leadTargets(&lead, &bant, &wonData)...); err != nil {
		return Lead{}, err
	}
	if err := decodeLeadJSON(&lead, bant, wonData); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func decodeLeadJSON(lead *Lead, bant, wonData []byte) error {
	if len(bant) > 0 {
		lead.BANT = &BANT{}
		if err := json.Unmarshal(bant, lead.BANT); err != nil {
			return fmt.Errorf("decode bant: %w", err)
		}
	}
	if len(wonData) > 0 {
		lead.WonData = &domain.WonData{}
		if err := json.Unmarshal(wonData, lead.WonData); err != nil {
			return fmt.Errorf("decode won data: %w", err)
		}
	}
	return nil
}

// jsonParam encodes v for a JSONB column, mapping a nil pointer to NULL.
func jsonParam[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
