package inapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification kinds.
const (
	KindLeadAssigned = "lead_assigned"
	KindTaskAssigned = "task_assigned"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	UserID         uuid.UUID  `json:"userId"`
	Kind           string     `json:"kind"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type CreateParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Kind           string
	Title          string
	Body           string
	LeadID         *uuid.UUID
}

const notificationColumns = `id, organization_id, user_id, kind, title, body, lead_id, read_at, created_at`

const (
	// ON CONFLICT makes redelivered jobs a no-op.
	createQuery = `
		INSERT INTO notifications (id, organization_id, user_id, kind, title, body, lead_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING ` + notificationColumns

	listQuery = `
		SELECT ` + notificationColumns + `, COUNT(*) OVER()
		FROM notifications
		WHERE organization_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	countUnreadQuery = `
		SELECT COUNT(*) FROM notifications
		WHERE organization_id = $1 AND user_id = $2 AND read_at IS NULL`

	markReadQuery = `
		UPDATE notifications SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND organization_id = $2 AND user_id = $3`

	markAllReadQuery = `
		UPDATE notifications SET read_at = now()
		WHERE organization_id = $1 AND user_id = $2 AND read_at IS NULL`
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	row := r.pool.QueryRow(ctx, createQuery, p.ID, p.OrganizationID, p.UserID, p.Kind, p.Title, p.Body, p.LeadID)
	return scanNotification(row)
}

// List returns a page of the user's notifications, newest first, and the total count.
func (r *Repository) List(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	rows, err := r.pool.Query(ctx, listQuery, organizationID, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	total := 0
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.LeadID, &n.ReadAt, &n.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *Repository) CountUnread(ctx context.Context, organizationID, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countUnreadQuery, organizationID, userID).Scan(&count)
	return count, err
}

func (r *Repository) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, markReadQuery, id, organizationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, organizationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, markAllReadQuery, organizationID, userID)
	return err
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.OrganizationID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.LeadID, &n.ReadAt, &n.CreatedAt)
	return n, err
}
