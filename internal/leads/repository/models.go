package repository

import (
	"time"

	"salesflow_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Acquisition channels.
const (
	SourceManual   = "manual"
	SourceWebsite  = "website"
	SourceReferral = "referral"
	SourceMeta     = "meta"
	SourceWhatsApp = "whatsapp"
	SourceEmail    = "email"
	SourceImport   = "import"
	SourceOther    = "other"
)

// Note types.
const (
	NoteTypeNote       = "note"
	NoteTypeCall       = "call"
	NoteTypeEmail      = "email"
	NoteTypeMeeting    = "meeting"
	NoteTypeSystem     = "system"
	NoteTypeLostReason = "lost_reason"
	NoteTypeConflict   = "conflict"
)

// BANT is the optional qualification record.
type BANT struct {
	Budget    string `json:"budget,omitempty"`
	Authority string `json:"authority,omitempty"`
	Need      string `json:"need,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
}

type Lead struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	Name             string
	Company          string
	Email            *string
	Phone            *string
	Value            float64
	Stage            string
	OwnerID          *uuid.UUID
	Probability      int
	Source           string
	Tags             []string
	ProductInterests []string
	BANT             *BANT
	WonData          *domain.WonData
	LastActivity     string
	LastActivityAt   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Unassigned reports whether the lead has no owner.
func (l Lead) Unassigned() bool {
	return l.OwnerID == nil
}

type CreateLeadParams struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	Name             string
	Company          string
	Email            *string
	Phone            *string
	Value            float64
	Stage            string
	OwnerID          *uuid.UUID
	Probability      int
	Source           string
	Tags             []string
	ProductInterests []string
	BANT             *BANT
	LastActivity     string
}

// UpdateLeadParams carries the fields to change; nil fields are left alone.
type UpdateLeadParams struct {
	Name             *string
	Company          *string
	Email            *string
	Phone            *string
	Value            *float64
	Source           *string
	Tags             *[]string
	ProductInterests *[]string
	BANT             *BANT
	Probability      *int
	LastActivity     *string
}

// TransitionParams is the stage write produced by a planned transition.
type TransitionParams struct {
	Stage       string
	Probability int
	Value       float64
	WonData     *domain.WonData
	Activity    string
}

type ListParams struct {
	OrganizationID uuid.UUID
	Stage          string
	OwnerID        *uuid.UUID
	Unassigned     bool
	Source         string
	Search         string
	Tag            string
	Limit          int
	Offset         int
}

// Duplicate is an existing lead matching a creation attempt.
type Duplicate struct {
	Lead      Lead
	MatchedOn string
}

// StageTotal aggregates the non-deleted leads of one stage.
type StageTotal struct {
	Stage string
	Count int
	Value float64
}

type Note struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	AuthorID       *uuid.UUID
	Type           string
	Content        string
	CreatedAt      time.Time
}

type CreateNoteParams struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	AuthorID       *uuid.UUID
	Type           string
	Content        string
}

// HistoryEvent is one logged communication with the prospect.
type HistoryEvent struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Channel        string
	Direction      string
	Summary        string
	AuthorID       *uuid.UUID
	OccurredAt     time.Time
	CreatedAt      time.Time
}

type AddHistoryParams struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Channel        string
	Direction      string
	Summary        string
	AuthorID       *uuid.UUID
	OccurredAt     time.Time
}

type Document struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Name           string
	FileKey        string
	ContentType    string
	SizeBytes      int64
	UploadedBy     *uuid.UUID
	CreatedAt      time.Time
}

type CreateDocumentParams struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Name           string
	FileKey        string
	ContentType    string
	SizeBytes      int64
	UploadedBy     *uuid.UUID
}
