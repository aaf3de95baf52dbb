// Package repository persists per-tenant distribution settings.
package repository

import (
	"context"
	"errors"
	"time"

	"salesflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the singleton distribution configuration of a tenant.
type Settings struct {
	OrganizationID uuid.UUID
	Enabled        bool
	Method         string
	Cursor         int
	UpdatedBy      *uuid.UUID
	UpdatedAt      time.Time
}

// Defaults is used for tenants without a stored row.
func Defaults(organizationID uuid.UUID) Settings {
	return Settings{OrganizationID: organizationID, Method: "round_robin"}
}

const settingsColumns = `organization_id, enabled, method, rr_cursor, updated_by, updated_at`

const getSettingsQuery = `
	SELECT ` + settingsColumns + `
	FROM distribution_settings
	WHERE organization_id = $1`

const ensureSettingsQuery = `
	INSERT INTO distribution_settings (organization_id)
	VALUES ($1)
	ON CONFLICT (organization_id) DO NOTHING`

const lockSettingsQuery = getSettingsQuery + `
	FOR UPDATE`

const saveCursorQuery = `
	UPDATE distribution_settings
	SET rr_cursor = $2
	WHERE organization_id = $1`

const upsertSettingsQuery = `
	INSERT INTO distribution_settings (organization_id, enabled, method, updated_by, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (organization_id) DO UPDATE
	SET enabled = EXCLUDED.enabled,
	    method = EXCLUDED.method,
	    rr_cursor = CASE WHEN distribution_settings.method = EXCLUDED.method THEN distribution_settings.rr_cursor ELSE 0 END,
	    updated_by = EXCLUDED.updated_by,
	    updated_at = now()
	RETURNING ` + settingsColumns

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored settings or Defaults when none exist.
func (r *Repository) Get(ctx context.Context, organizationID uuid.UUID) (Settings, error) {
	s, err := scanSettings(db.Conn(ctx, r.pool).QueryRow(ctx, getSettingsQuery, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(organizationID), nil
	}
	return s, err
}

// Lock creates the row if needed and locks it until the surrounding
// transaction ends, serializing assignment per tenant.
func (r *Repository) Lock(ctx context.Context, organizationID uuid.UUID) (Settings, error) {
	conn := db.Conn(ctx, r.pool)
	if _, err := conn.Exec(ctx, ensureSettingsQuery, organizationID); err != nil {
		return Settings{}, err
	}
	return scanSettings(conn.QueryRow(ctx, lockSettingsQuery, organizationID))
}

func (r *Repository) SaveCursor(ctx context.Context, organizationID uuid.UUID, cursor int) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, saveCursorQuery, organizationID, cursor)
	return err
}

// Upsert stores enabled and method. Switching method resets the cursor.
func (r *Repository) Upsert(ctx context.Context, organizationID uuid.UUID, enabled bool, method string, updatedBy uuid.UUID) (Settings, error) {
	return scanSettings(db.Conn(ctx, r.pool).QueryRow(ctx, upsertSettingsQuery, organizationID, enabled, method, updatedBy))
}

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(&s.OrganizationID, &s.Enabled, &s.Method, &s.Cursor, &s.UpdatedBy, &s.UpdatedAt)
	return s, err
}
