package repository

import (
	"context"
	"errors"

	"salesflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const listNotesQuery = `
	SELECT id, organization_id, lead_id, author_id, type, content, created_at
	FROM lead_notes
	WHERE lead_id = $1 AND organization_id = $2
	ORDER BY created_at DESC, id DESC`

const listHistoryQuery = `
	SELECT id, organization_id, lead_id, channel, direction, summary, author_id, occurred_at, created_at
	FROM lead_history
	WHERE lead_id = $1 AND organization_id = $2
	ORDER BY occurred_at ASC, id ASC`

const documentColumns = `id, organization_id, lead_id, name, file_key, content_type, size_bytes, uploaded_by, created_at`

const listDocumentsQuery = `
	SELECT ` + documentColumns + `
	FROM lead_documents
	WHERE lead_id = $1 AND organization_id = $2
	ORDER BY created_at DESC, id DESC`

const getDocumentQuery = `
	SELECT ` + documentColumns + `
	FROM lead_documents
	WHERE id = $1 AND lead_id = $2 AND organization_id = $3`

func (r *Repository) CreateNote(ctx context.Context, params CreateNoteParams) (Note, error) {
	var n Note
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lead_notes (id, organization_id, lead_id, author_id, type, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, organization_id, lead_id, author_id, type, content, created_at`,
		uuid.New(), params.OrganizationID, params.LeadID, params.AuthorID, params.Type, params.Content,
	).Scan(&n.ID, &n.OrganizationID, &n.LeadID, &n.AuthorID, &n.Type, &n.Content, &n.CreatedAt)
	return n, err
}

// ListNotes returns notes newest first.
func (r *Repository) ListNotes(ctx context.Context, leadID, organizationID uuid.UUID) ([]Note, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, listNotesQuery, leadID, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.LeadID, &n.AuthorID, &n.Type, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *Repository) AddHistory(ctx context.Context, params AddHistoryParams) (HistoryEvent, error) {
	var h HistoryEvent
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lead_history (id, organization_id, lead_id, channel, direction, summary, author_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, organization_id, lead_id, channel, direction, summary, author_id, occurred_at, created_at`,
		uuid.New(), params.OrganizationID, params.LeadID, params.Channel, params.Direction, params.Summary,
		params.AuthorID, params.OccurredAt,
	).Scan(&h.ID, &h.OrganizationID, &h.LeadID, &h.Channel, &h.Direction, &h.Summary, &h.AuthorID, &h.OccurredAt, &h.CreatedAt)
	return h, err
}

// ListHistory returns communication events in the order they happened.
func (r *Repository) ListHistory(ctx context.Context, leadID, organizationID uuid.UUID) ([]HistoryEvent, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, listHistoryQuery, leadID, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]HistoryEvent, 0)
	for rows.Next() {
		var h HistoryEvent
		if err := rows.Scan(&h.ID, &h.OrganizationID, &h.LeadID, &h.Channel, &h.Direction, &h.Summary, &h.AuthorID, &h.OccurredAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, h)
	}
	return events, rows.Err()
}

func (r *Repository) CreateDocument(ctx context.Context, params CreateDocumentParams) (Document, error) {
	return scanDocument(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lead_documents (id, organization_id, lead_id, name, file_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+documentColumns,
		uuid.New(), params.OrganizationID, params.LeadID, params.Name, params.FileKey, params.ContentType,
		params.SizeBytes, params.UploadedBy,
	))
}

func (r *Repository) ListDocuments(ctx context.Context, leadID, organizationID uuid.UUID) ([]Document, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, listDocumentsQuery, leadID, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *Repository) GetDocument(ctx context.Context, id, leadID, organizationID uuid.UUID) (Document, error) {
	doc, err := scanDocument(db.Conn(ctx, r.pool).QueryRow(ctx, getDocumentQuery, id, leadID, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.OrganizationID, &d.LeadID, &d.Name, &d.FileKey, &d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt)
	return d, err
}
