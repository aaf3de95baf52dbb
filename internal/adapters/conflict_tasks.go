package adapters

import (
	"context"

	"salesflow_backend/internal/leads/conflict"
	tasksrepo "salesflow_backend/internal/tasks/repository"

	"github.com/google/uuid"
)

// TaskStore persists and announces follow-up tasks.
type TaskStore interface {
	Store(ctx context.Context, params tasksrepo.CreateTaskParams) (tasksrepo.Task, error)
	Announce(ctx context.Context, task tasksrepo.Task)
}

// ConflictTasks raises high-priority conflict tasks through the task module.
type ConflictTasks struct {
	tasks TaskStore
}

func NewConflictTasks(tasks TaskStore) *ConflictTasks {
	return &ConflictTasks{tasks: tasks}
}

func (a *ConflictTasks) ScheduleConflictTask(ctx context.Context, task conflict.Task) (uuid.UUID, error) {
	stored, err := a.tasks.Store(ctx, tasksrepo.CreateTaskParams{
		OrganizationID: task.OrganizationID,
		Title:          task.Title,
		Type:           tasksrepo.TypeConflict,
		Priority:       tasksrepo.PriorityHigh,
		DueDate:        task.DueDate,
		AssignedTo:     task.AssignedTo,
		RelatedLeadID:  &task.LeadID,
		Description:    task.Description,
		CreatedBy:      &task.CreatedBy,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return stored.ID, nil
}

func (a *ConflictTasks) AnnounceConflictTask(ctx context.Context, task conflict.Task, taskID uuid.UUID) {
	a.tasks.Announce(ctx, tasksrepo.Task{
		ID:             taskID,
		OrganizationID: task.OrganizationID,
		Title:          task.Title,
		Type:           tasksrepo.TypeConflict,
		Priority:       tasksrepo.PriorityHigh,
		Status:         tasksrepo.StatusOpen,
		DueDate:        task.DueDate,
		AssignedTo:     task.AssignedTo,
		RelatedLeadID:  &task.LeadID,
		Description:    task.Description,
		CreatedBy:      &task.CreatedBy,
	})
}

var _ conflict.TaskScheduler = (*ConflictTasks)(nil)
