// Package service manages follow-up tasks, including the conflict tasks
// raised by duplicate lead registrations.
package service

import (
	"context"
	"errors"
	"strings"

	"salesflow_backend/internal/events"
	"salesflow_backend/internal/tasks/repository"
	"salesflow_backend/internal/tasks/transport"
	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the task service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateTaskParams) (repository.Task, error)
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (repository.Task, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Task, error)
	Complete(ctx context.Context, id, organizationID uuid.UUID) (repository.Task, error)
}

type Service struct {
	repo Repository
	bus  events.Bus
}

func New(repo Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Store persists a task without announcing it. It joins the transaction on
// ctx, so callers publish with Announce after their commit.
func (s *Service) Store(ctx context.Context, params repository.CreateTaskParams) (repository.Task, error) {
	params.Title = sanitize.Text(params.Title)
	params.Description = sanitize.Text(params.Description)
	if params.Title == "" {
		return repository.Task{}, apperr.Validation("task title is required")
	}
	if params.Priority == "" {
		params.Priority = repository.PriorityMedium
	}

	task, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Task{}, apperr.Persistence("create task", err)
	}
	return task, nil
}

// Announce publishes TaskAssigned for a stored task.
func (s *Service) Announce(ctx context.Context, task repository.Task) {
	s.bus.Publish(ctx, events.TaskAssigned{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        task.ID,
		TenantID:      task.OrganizationID,
		AssignedTo:    task.AssignedTo,
		RelatedLeadID: task.RelatedLeadID,
		Title:         task.Title,
		Type:          task.Type,
		Priority:      task.Priority,
	})
}

// Create stores and announces a manually planned task. Unassigned tasks go
// to the creator.
func (s *Service) Create(ctx context.Context, organizationID, actorID uuid.UUID, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	assignee := req.AssignedTo
	if assignee == nil {
		assignee = &actorID
	}

	task, err := s.Store(ctx, repository.CreateTaskParams{
		OrganizationID: organizationID,
		Title:          req.Title,
		Type:           req.Type,
		Priority:       strings.ToLower(req.Priority),
		DueDate:        req.DueDate,
		AssignedTo:     assignee,
		RelatedLeadID:  req.RelatedLeadID,
		Description:    req.Description,
		CreatedBy:      &actorID,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}
	s.Announce(ctx, task)
	return ToResponse(task), nil
}

// ListMine returns tasks assigned to the actor, optionally filtered by status.
func (s *Service) ListMine(ctx context.Context, organizationID, actorID uuid.UUID, status string) (transport.TaskListResponse, error) {
	if status != "" && status != repository.StatusOpen && status != repository.StatusDone {
		return transport.TaskListResponse{}, apperr.Validation("status must be open or done")
	}
	return s.list(ctx, repository.ListParams{OrganizationID: organizationID, AssignedTo: &actorID, Status: status})
}

// ListForLead returns every task linked to a lead.
func (s *Service) ListForLead(ctx context.Context, organizationID, leadID uuid.UUID) (transport.TaskListResponse, error) {
	return s.list(ctx, repository.ListParams{OrganizationID: organizationID, RelatedLeadID: &leadID, Limit: 200})
}

func (s *Service) list(ctx context.Context, params repository.ListParams) (transport.TaskListResponse, error) {
	tasks, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.TaskListResponse{}, apperr.Persistence("list tasks", err)
	}
	items := make([]transport.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, ToResponse(t))
	}
	return transport.TaskListResponse{Items: items}, nil
}

// Complete closes a task. Only the assignee or a manager may do so.
func (s *Service) Complete(ctx context.Context, organizationID, id, actorID uuid.UUID, isManager bool) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.TaskResponse{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return transport.TaskResponse{}, apperr.Persistence("load task", err)
	}
	if !isManager && (task.AssignedTo == nil || *task.AssignedTo != actorID) {
		return transport.TaskResponse{}, apperr.Forbidden("only the assignee can complete this task")
	}
	if task.Status == repository.StatusDone {
		return ToResponse(task), nil
	}

	done, err := s.repo.Complete(ctx, id, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.TaskResponse{}, apperr.Conflict("task already completed")
	}
	if err != nil {
		return transport.TaskResponse{}, apperr.Persistence("complete task", err)
	}
	return ToResponse(done), nil
}

func ToResponse(t repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Type:          t.Type,
		Priority:      t.Priority,
		Status:        t.Status,
		DueDate:       t.DueDate,
		AssignedTo:    t.AssignedTo,
		RelatedLeadID: t.RelatedLeadID,
		Description:   t.Description,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
	}
}
