// Package repository persists pipeline column configuration.
package repository

import (
	"context"

	"salesflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listColumnsQuery = `
	SELECT key, title, color, probability, position
	FROM pipeline_columns
	WHERE organization_id = $1
	ORDER BY position ASC, key ASC`

const deleteColumnsQuery = `DELETE FROM pipeline_columns WHERE organization_id = $1`

const insertColumnQuery = `
	INSERT INTO pipeline_columns (organization_id, key, title, color, probability, position, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListColumns returns the stored columns of a tenant ordered by position.
// An empty slice means the tenant never configured its pipeline.
func (r *Repository) ListColumns(ctx context.Context, organizationID uuid.UUID) ([]Column, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, listColumnsQuery, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make([]Column, 0)
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Key, &col.Title, &col.Color, &col.Probability, &col.Position); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// ReplaceColumns swaps the full column set. Callers run it inside a transaction.
func (r *Repository) ReplaceColumns(ctx context.Context, organizationID uuid.UUID, columns []Column) error {
	conn := db.Conn(ctx, r.pool)
	if _, err := conn.Exec(ctx, deleteColumnsQuery, organizationID); err != nil {
		return err
	}
	for _, col := range columns {
		if _, err := conn.Exec(ctx, insertColumnQuery,
			organizationID, col.Key, col.Title, col.Color, col.Probability, col.Position,
		); err != nil {
			return err
		}
	}
	return nil
}
