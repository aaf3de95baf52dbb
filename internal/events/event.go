// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"salesflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a lead is persisted in the intake stage.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID  `json:"leadId"`
	TenantID uuid.UUID  `json:"tenantId"`
	OwnerID  *uuid.UUID `json:"ownerId,omitempty"`
	Stage    string     `json:"stage"`
	Source   string     `json:"source"`
	Name     string     `json:"name"`
	Company  string     `json:"company,omitempty"`
	Email    string     `json:"email,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Value    float64    `json:"value"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published whenever a lead gains a new owner, whether by
// distribution, release, or bulk reassignment.
type LeadAssigned struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	LeadName        string     `json:"leadName"`
	PreviousOwnerID *uuid.UUID `json:"previousOwnerId,omitempty"`
	NewOwnerID      *uuid.UUID `json:"newOwnerId,omitempty"`
	AssignedByID    *uuid.UUID `json:"assignedById,omitempty"`
	Method          string     `json:"method"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadClaimed is published when a representative claims an unassigned lead.
type LeadClaimed struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	ClaimedBy uuid.UUID `json:"claimedBy"`
}

func (e LeadClaimed) EventName() string { return "leads.lead.claimed" }

// LeadStageChanged is published after a stage transition commits.
type LeadStageChanged struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ActorID    uuid.UUID `json:"actorId"`
	OldStage   string    `json:"oldStage"`
	NewStage   string    `json:"newStage"`
	LostReason string    `json:"lostReason,omitempty"`
	FinalPrice *float64  `json:"finalPrice,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.lead.stage_changed" }

// LeadConflictEscalated is published when a duplicate registration attempt
// was recorded on an existing lead.
type LeadConflictEscalated struct {
	BaseEvent
	LeadID   uuid.UUID  `json:"leadId"`
	TenantID uuid.UUID  `json:"tenantId"`
	ActorID  uuid.UUID  `json:"actorId"`
	OwnerID  *uuid.UUID `json:"ownerId,omitempty"`
	NoteID   uuid.UUID  `json:"noteId"`
	TaskID   uuid.UUID  `json:"taskId"`
	Reason   string     `json:"reason"`
}

func (e LeadConflictEscalated) EventName() string { return "leads.lead.conflict_escalated" }

// =============================================================================
// Tasks Domain Events
// =============================================================================

// TaskAssigned is published when a task is created for a team member.
type TaskAssigned struct {
	BaseEvent
	TaskID        uuid.UUID  `json:"taskId"`
	TenantID      uuid.UUID  `json:"tenantId"`
	AssignedTo    *uuid.UUID `json:"assignedTo,omitempty"`
	RelatedLeadID *uuid.UUID `json:"relatedLeadId,omitempty"`
	Title         string     `json:"title"`
	Type          string     `json:"type"`
	Priority      string     `json:"priority"`
}

func (e TaskAssigned) EventName() string { return "tasks.task.assigned" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// PipelineConfigured is published after a tenant replaces its column set.
type PipelineConfigured struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	ActorID   uuid.UUID `json:"actorId"`
	StageKeys []string  `json:"stageKeys"`
}

func (e PipelineConfigured) EventName() string { return "pipeline.columns.configured" }
