package transport

import (
	"time"

	"github.com/google/uuid"
)

type BANTInput struct {
	Budget    string `json:"budget" validate:"max=200"`
	Authority string `json:"authority" validate:"max=200"`
	Need      string `json:"need" validate:"max=500"`
	Timeline  string `json:"timeline" validate:"max=200"`
}

type CreateLeadRequest struct {
	Name             string     `json:"name" validate:"required,max=200"`
	Company          string     `json:"company" validate:"max=200"`
	Email            string     `json:"email" validate:"omitempty,email,max=254"`
	Phone            string     `json:"phone" validate:"omitempty,max=40"`
	Value            float64    `json:"value" validate:"gte=0"`
	Source           string     `json:"source" validate:"omitempty,oneof=manual website referral meta whatsapp email import other"`
	Tags             []string   `json:"tags" validate:"max=50,dive,max=60"`
	ProductInterests []string   `json:"productInterests" validate:"max=50,dive,max=120"`
	BANT             *BANTInput `json:"bant"`
	// Owner assigns explicitly; when omitted the distribution engine decides.
	Owner OwnerRef `json:"owner"`
}

type UpdateLeadRequest struct {
	Name             *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Company          *string    `json:"company" validate:"omitempty,max=200"`
	Email            *string    `json:"email" validate:"omitempty,email,max=254"`
	Phone            *string    `json:"phone" validate:"omitempty,max=40"`
	Value            *float64   `json:"value" validate:"omitempty,gte=0"`
	Source           *string    `json:"source" validate:"omitempty,oneof=manual website referral meta whatsapp email import other"`
	Tags             *[]string  `json:"tags" validate:"omitempty,max=50,dive,max=60"`
	ProductInterests *[]string  `json:"productInterests" validate:"omitempty,max=50,dive,max=120"`
	BANT             *BANTInput `json:"bant"`
	Probability      *int       `json:"probability" validate:"omitempty,min=0,max=100"`
}

type ListLeadsRequest struct {
	Stage    string `form:"stage" validate:"max=40"`
	Owner    string `form:"owner" validate:"max=40"`
	Source   string `form:"source" validate:"omitempty,oneof=manual website referral meta whatsapp email import other"`
	Search   string `form:"search" validate:"max=200"`
	Tag      string `form:"tag" validate:"max=60"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type WonRequest struct {
	Products     []string `json:"products" validate:"max=50,dive,max=120"`
	FinalPrice   *float64 `json:"finalPrice"`
	ClosingNotes string   `json:"closingNotes"`
}

type LostRequest struct {
	Reason string `json:"reason" validate:"max=60"`
	Detail string `json:"detail"`
}

type MoveStageRequest struct {
	Stage string       `json:"stage" validate:"required,max=40"`
	Won   *WonRequest  `json:"won"`
	Lost  *LostRequest `json:"lost"`
}

type BulkReassignRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=500"`
	Target  OwnerRef    `json:"target"`
}

type BulkFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

type BulkReassignResponse struct {
	Succeeded []uuid.UUID   `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type ResolveConflictRequest struct {
	Reason string `json:"reason"`
}

type ResolveConflictResponse struct {
	NoteCreated bool      `json:"noteCreated"`
	TaskCreated bool      `json:"taskCreated"`
	NoteID      uuid.UUID `json:"noteId"`
	TaskID      uuid.UUID `json:"taskId"`
}

type ConflictResponse struct {
	Outcome          string    `json:"outcome"`
	MatchedOn        string    `json:"matchedOn"`
	ExistingLeadID   uuid.UUID `json:"existingLeadId"`
	ExistingLeadName string    `json:"existingLeadName"`
	ExistingOwner    OwnerRef  `json:"existingOwner"`
}

// CreateLeadResponse carries exactly one of Created or Conflict.
type CreateLeadResponse struct {
	Created  *LeadResponse     `json:"created,omitempty"`
	Conflict *ConflictResponse `json:"conflict,omitempty"`
}

type WonDataResponse struct {
	Products     []string  `json:"products"`
	FinalPrice   float64   `json:"finalPrice"`
	ClosingNotes string    `json:"closingNotes,omitempty"`
	ClosedAt     time.Time `json:"closedAt"`
}

type BANTResponse struct {
	Budget    string `json:"budget,omitempty"`
	Authority string `json:"authority,omitempty"`
	Need      string `json:"need,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
}

type LeadResponse struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Company          string           `json:"company"`
	Email            *string          `json:"email,omitempty"`
	Phone            *string          `json:"phone,omitempty"`
	Value            float64          `json:"value"`
	Stage            string           `json:"stage"`
	Owner            OwnerRef         `json:"owner"`
	Probability      int              `json:"probability"`
	Source           string           `json:"source"`
	Tags             []string         `json:"tags"`
	ProductInterests []string         `json:"productInterests"`
	BANT             *BANTResponse    `json:"bant,omitempty"`
	WonData          *WonDataResponse `json:"wonData,omitempty"`
	LastActivity     string           `json:"lastActivity"`
	LastActivityAt   time.Time        `json:"lastActivityAt"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type LeadDetailResponse struct {
	LeadResponse
	Notes     []NoteResponse     `json:"notes"`
	History   []HistoryResponse  `json:"history"`
	Documents []DocumentResponse `json:"documents"`
}

type LeadListResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
