package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=note call email meeting"`
}

type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	LeadID    uuid.UUID  `json:"leadId"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

type NoteListResponse struct {
	Items []NoteResponse `json:"items"`
}

type AddHistoryRequest struct {
	Channel    string     `json:"channel" validate:"required,oneof=call email whatsapp sms meeting"`
	Direction  string     `json:"direction" validate:"required,oneof=inbound outbound"`
	Summary    string     `json:"summary" validate:"required,max=2000"`
	OccurredAt *time.Time `json:"occurredAt"`
}

type HistoryResponse struct {
	ID         uuid.UUID  `json:"id"`
	LeadID     uuid.UUID  `json:"leadId"`
	Channel    string     `json:"channel"`
	Direction  string     `json:"direction"`
	Summary    string     `json:"summary"`
	AuthorID   *uuid.UUID `json:"authorId,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

type HistoryListResponse struct {
	Items []HistoryResponse `json:"items"`
}
