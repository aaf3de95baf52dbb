// Package conflict detects duplicate lead registrations and escalates them
// to the current owner as a note plus a high-priority task. It never merges
// records or changes ownership.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/leads/repository"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/metrics"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	OutcomeNone         = "none"
	OutcomeOwnedByActor = "owned_by_actor"
	OutcomeOwnedByOther = "owned_by_other"

	maxReasonLength = 2000
)

// Info describes a duplicate found at creation time.
type Info struct {
	Outcome          string
	MatchedOn        string
	ExistingLeadID   uuid.UUID
	ExistingLeadName string
	ExistingOwner    *uuid.UUID
}

// Found reports whether creation must stop. The zero Info is not a match.
func (i Info) Found() bool {
	return i.Outcome == OutcomeOwnedByActor || i.Outcome == OutcomeOwnedByOther
}

// Result is returned by a successful escalation.
type Result struct {
	NoteID uuid.UUID
	TaskID uuid.UUID
}

// LeadStore is the lead persistence the resolver needs.
type LeadStore interface {
	FindDuplicate(ctx context.Context, organizationID uuid.UUID, email, phone *string) (repository.Duplicate, error)
	GetForUpdate(ctx context.Context, id, organizationID uuid.UUID) (repository.Lead, error)
	CreateNote(ctx context.Context, params repository.CreateNoteParams) (repository.Note, error)
	Touch(ctx context.Context, id, organizationID uuid.UUID, activity string) error
}

// Task is the follow-up raised for the owner of the existing lead.
type Task struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	AssignedTo     *uuid.UUID
	Title          string
	Description    string
	DueDate        time.Time
	CreatedBy      uuid.UUID
}

// TaskScheduler stores conflict tasks inside the caller's transaction and
// announces them once it committed.
type TaskScheduler interface {
	ScheduleConflictTask(ctx context.Context, task Task) (uuid.UUID, error)
	AnnounceConflictTask(ctx context.Context, task Task, taskID uuid.UUID)
}

// ActorNames resolves team member display names.
type ActorNames interface {
	DisplayName(ctx context.Context, organizationID, memberID uuid.UUID) (string, error)
}

type Resolver struct {
	leads LeadStore
	tasks TaskScheduler
	names ActorNames
	tx    db.Transactor
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

func New(leads LeadStore, tasks TaskScheduler, names ActorNames, tx db.Transactor, bus events.Bus, log *logger.Logger) *Resolver {
	return &Resolver{leads: leads, tasks: tasks, names: names, tx: tx, bus: bus, log: log, now: time.Now}
}

// Detect matches email (case-insensitive) or phone against existing leads.
// Inputs are expected already normalized.
func (r *Resolver) Detect(ctx context.Context, organizationID, actorID uuid.UUID, email, phone *string) (Info, error) {
	dup, err := r.leads.FindDuplicate(ctx, organizationID, email, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return Info{Outcome: OutcomeNone}, nil
	}
	if err != nil {
		return Info{}, apperr.Persistence("check duplicates", err)
	}

	info := Info{
		Outcome:          OutcomeOwnedByOther,
		MatchedOn:        dup.MatchedOn,
		ExistingLeadID:   dup.Lead.ID,
		ExistingLeadName: dup.Lead.Name,
		ExistingOwner:    dup.Lead.OwnerID,
	}
	if dup.Lead.OwnerID != nil && *dup.Lead.OwnerID == actorID {
		info.Outcome = OutcomeOwnedByActor
	}
	metrics.RecordConflict(info.Outcome)
	return info, nil
}

// Escalate records a duplicate registration attempt on the existing lead.
// The note and the task are written in one transaction.
func (r *Resolver) Escalate(ctx context.Context, organizationID, leadID, actorID uuid.UUID, reason string) (Result, error) {
	reason = sanitize.Text(reason)
	if reason == "" {
		return Result{}, apperr.Validation("a reason is required to escalate a duplicate registration")
	}
	if len(reason) > maxReasonLength {
		return Result{}, apperr.Validation("reason cannot exceed 2000 characters")
	}

	actorName := r.actorName(ctx, organizationID, actorID)
	now := r.now().UTC()

	var (
		result Result
		task   Task
		lead   repository.Lead
	)
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = r.leads.GetForUpdate(ctx, leadID, organizationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return apperr.Persistence("load lead", err)
		}
		if lead.OwnerID != nil && *lead.OwnerID == actorID {
			return apperr.Validation("you already own this lead")
		}

		note, err := r.leads.CreateNote(ctx, repository.CreateNoteParams{
			OrganizationID: organizationID,
			LeadID:         leadID,
			AuthorID:       &actorID,
			Type:           repository.NoteTypeConflict,
			Content:        fmt.Sprintf("Duplicate registration attempt by %s: %s", actorName, reason),
		})
		if err != nil {
			return apperr.Persistence("create conflict note", err)
		}

		task = Task{
			OrganizationID: organizationID,
			LeadID:         leadID,
			AssignedTo:     lead.OwnerID,
			Title:          "Duplicate registration: " + lead.Name,
			Description:    fmt.Sprintf("%s tried to register %s, which already exists. Reason: %s", actorName, lead.Name, reason),
			DueDate:        now,
			CreatedBy:      actorID,
		}
		taskID, err := r.tasks.ScheduleConflictTask(ctx, task)
		if err != nil {
			return apperr.Persistence("create conflict task", err)
		}

		if err := r.leads.Touch(ctx, leadID, organizationID, "Duplicate registration attempt"); err != nil {
			return apperr.Persistence("touch lead", err)
		}

		result = Result{NoteID: note.ID, TaskID: taskID}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	r.tasks.AnnounceConflictTask(ctx, task, result.TaskID)
	r.bus.Publish(ctx, events.LeadConflictEscalated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		TenantID:  organizationID,
		ActorID:   actorID,
		OwnerID:   lead.OwnerID,
		NoteID:    result.NoteID,
		TaskID:    result.TaskID,
		Reason:    reason,
	})
	metrics.RecordConflict("escalated")
	r.log.WithContext(ctx).DomainEvent("lead_conflict_escalated",
		"lead_id", leadID.String(),
		"task_id", result.TaskID.String(),
	)
	return result, nil
}

func (r *Resolver) actorName(ctx context.Context, organizationID, actorID uuid.UUID) string {
	name, err := r.names.DisplayName(ctx, organizationID, actorID)
	if err != nil || name == "" {
		return actorID.String()
	}
	return name
}
