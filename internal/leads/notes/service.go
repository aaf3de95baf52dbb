// Package notes handles lead notes and the communication history.
package notes

import (
	"context"
	"errors"
	"time"

	"salesflow_backend/internal/leads/management"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/leads/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the notes service.
type Repository interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	Touch(ctx context.Context, id, organizationID uuid.UUID, activity string) error
	CreateNote(ctx context.Context, params repository.CreateNoteParams) (repository.Note, error)
	ListNotes(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.Note, error)
	AddHistory(ctx context.Context, params repository.AddHistoryParams) (repository.HistoryEvent, error)
	ListHistory(ctx context.Context, leadID, organizationID uuid.UUID) ([]repository.HistoryEvent, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Add adds a new note to a lead.
func (s *Service) Add(ctx context.Context, organizationID, leadID, authorID uuid.UUID, req transport.CreateNoteRequest) (transport.NoteResponse, error) {
	content := sanitize.Text(req.Content)
	if content == "" || len(content) > 2000 {
		return transport.NoteResponse{}, apperr.Validation("note content must be between 1 and 2000 characters")
	}
	noteType := req.Type
	if noteType == "" {
		noteType = repository.NoteTypeNote
	}

	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.NoteResponse{}, err
	}

	note, err := s.repo.CreateNote(ctx, repository.CreateNoteParams{
		OrganizationID: organizationID,
		LeadID:         leadID,
		AuthorID:       &authorID,
		Type:           noteType,
		Content:        content,
	})
	if err != nil {
		return transport.NoteResponse{}, apperr.Persistence("create note", err)
	}
	if err := s.repo.Touch(ctx, leadID, organizationID, "Note added"); err != nil {
		return transport.NoteResponse{}, apperr.Persistence("touch lead", err)
	}
	return management.ToNoteResponse(note), nil
}

// List retrieves all notes for a lead, newest first.
func (s *Service) List(ctx context.Context, organizationID, leadID uuid.UUID) (transport.NoteListResponse, error) {
	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.NoteListResponse{}, err
	}
	notes, err := s.repo.ListNotes(ctx, leadID, organizationID)
	if err != nil {
		return transport.NoteListResponse{}, apperr.Persistence("list notes", err)
	}
	items := make([]transport.NoteResponse, 0, len(notes))
	for _, n := range notes {
		items = append(items, management.ToNoteResponse(n))
	}
	return transport.NoteListResponse{Items: items}, nil
}

// LogCommunication appends a call, email or message to the lead history.
func (s *Service) LogCommunication(ctx context.Context, organizationID, leadID, authorID uuid.UUID, req transport.AddHistoryRequest) (transport.HistoryResponse, error) {
	summary := sanitize.Text(req.Summary)
	if summary == "" {
		return transport.HistoryResponse{}, apperr.Validation("summary is required")
	}
	occurredAt := s.now().UTC()
	if req.OccurredAt != nil {
		if req.OccurredAt.After(occurredAt.Add(time.Minute)) {
			return transport.HistoryResponse{}, apperr.Validation("occurredAt cannot be in the future")
		}
		occurredAt = req.OccurredAt.UTC()
	}

	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.HistoryResponse{}, err
	}

	event, err := s.repo.AddHistory(ctx, repository.AddHistoryParams{
		OrganizationID: organizationID,
		LeadID:         leadID,
		Channel:        req.Channel,
		Direction:      req.Direction,
		Summary:        summary,
		AuthorID:       &authorID,
		OccurredAt:     occurredAt,
	})
	if err != nil {
		return transport.HistoryResponse{}, apperr.Persistence("add history", err)
	}
	if err := s.repo.Touch(ctx, leadID, organizationID, historyActivity(req.Channel, req.Direction)); err != nil {
		return transport.HistoryResponse{}, apperr.Persistence("touch lead", err)
	}
	return management.ToHistoryResponse(event), nil
}

func (s *Service) History(ctx context.Context, organizationID, leadID uuid.UUID) (transport.HistoryListResponse, error) {
	if err := s.ensureLead(ctx, organizationID, leadID); err != nil {
		return transport.HistoryListResponse{}, err
	}
	history, err := s.repo.ListHistory(ctx, leadID, organizationID)
	if err != nil {
		return transport.HistoryListResponse{}, apperr.Persistence("list history", err)
	}
	items := make([]transport.HistoryResponse, 0, len(history))
	for _, h := range history {
		items = append(items, management.ToHistoryResponse(h))
	}
	return transport.HistoryListResponse{Items: items}, nil
}

func (s *Service) ensureLead(ctx context.Context, organizationID, leadID uuid.UUID) error {
	_, err := s.repo.GetByID(ctx, leadID, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Persistence("load lead", err)
	}
	return nil
}

var channelLabels = map[string]string{
	"call":     "Call",
	"email":    "Email",
	"whatsapp": "WhatsApp message",
	"sms":      "SMS",
}

func historyActivity(channel, direction string) string {
	if channel == "meeting" {
		return "Meeting logged"
	}
	label, ok := channelLabels[channel]
	if !ok {
		label = "Contact"
	}
	if direction == "inbound" {
		return label + " received"
	}
	return label + " sent"
}
