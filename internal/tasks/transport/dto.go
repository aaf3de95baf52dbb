package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Type          string     `json:"type" validate:"required,oneof=call email meeting follow_up"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate       time.Time  `json:"dueDate" validate:"required"`
	AssignedTo    *uuid.UUID `json:"assignedTo"`
	RelatedLeadID *uuid.UUID `json:"relatedLeadId"`
	Description   string     `json:"description" validate:"max=2000"`
}

type TaskResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Type          string     `json:"type"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	DueDate       time.Time  `json:"dueDate"`
	AssignedTo    *uuid.UUID `json:"assignedTo"`
	RelatedLeadID *uuid.UUID `json:"relatedLeadId,omitempty"`
	Description   string     `json:"description"`
	CreatedBy     *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
}
