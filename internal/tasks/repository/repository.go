// Package repository persists follow-up tasks.
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

var ErrNotFound = errors.New("task not found")

// Task types.
const (
	TypeCall     = "call"
	TypeEmail    = "email"
	TypeMeeting  = "meeting"
	TypeFollowUp = "follow_up"
	TypeConflict = "conflict"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses.
const (
	StatusOpen = "open"
	StatusDone = "done"
)

type Task struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	Type           string
	Priority       string
	Status         string
	DueDate        time.Time
	AssignedTo     *uuid.UUID
	RelatedLeadID  *uuid.UUID
	Description    string
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

type CreateTaskParams struct {
	OrganizationID uuid.UUID
	Title          string
	Type           string
	Priority       string
	DueDate        time.Time
	AssignedTo     *uuid.UUID
	RelatedLeadID  *uuid.UUID
	Description    string
	CreatedBy      *uuid.UUID
}

type ListParams struct {
	OrganizationID uuid.UUID
	AssignedTo     *uuid.UUID
	RelatedLeadID  *uuid.UUID
	Status         string
	Limit          int
}

const taskColumns = `id, organization_id, title, type, priority, status, due_date, assigned_to,
	related_lead_id, description, created_by, created_at, completed_at`

const listTasksQuery = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE organization_id = $1
	  AND ($2::uuid IS NULL OR assigned_to = $2)
	  AND ($3::uuid IS NULL OR related_lead_id = $3)
	  AND ($4::text = '' OR status = $4)
	ORDER BY due_date ASC, created_at ASC
	LIMIT $5`

const completeTaskQuery = `
	UPDATE tasks
	SET status = 'done', completed_at = now()
	WHERE id = $1 AND organization_id = $2 AND status = 'open'
	RETURNING ` + taskColumns

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, params CreateTaskParams) (Task, error) {
	return scanTask(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO tasks (id, organization_id, title, type, priority, status, due_date,
			assigned_to, related_lead_id, description, created_by)
		VALUES ($1, $2, $3, $4, $5, 'open', $6, $7, $8, $9, $10)
		RETURNING `+taskColumns,
		uuid.New(), params.OrganizationID, params.Title, params.Type, params.Priority, params.DueDate,
		params.AssignedTo, params.RelatedLeadID, params.Description, params.CreatedBy,
	))
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (Task, error) {
	task, err := scanTask(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND organization_id = $2`, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Task, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, listTasksQuery,
		params.OrganizationID, params.AssignedTo, params.RelatedLeadID, params.Status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Complete marks an open task done. ErrNotFound covers unknown and
// already completed tasks.
func (r *Repository) Complete(ctx context.Context, id, organizationID uuid.UUID) (Task, error) {
	task, err := scanTask(db.Conn(ctx, r.pool).QueryRow(ctx, completeTaskQuery, id, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.OrganizationID, &t.Title, &t.Type, &t.Priority, &t.Status, &t.DueDate,
		&t.AssignedTo, &t.RelatedLeadID, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.CompletedAt)
	return t, err
}
