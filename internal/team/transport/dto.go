package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateMemberRequest struct {
	// ID is the user id issued by the identity provider (JWT sub).
	ID     uuid.UUID `json:"id" validate:"required"`
	Name   string    `json:"name" validate:"required,max=120"`
	Email  string    `json:"email" validate:"required,email"`
	Role   string    `json:"role" validate:"required,oneof=Manager Sales Support"`
	Status string    `json:"status" validate:"omitempty,oneof=Active Inactive Away"`
}

type UpdateMemberRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=120"`
	Role   *string `json:"role" validate:"omitempty,oneof=Manager Sales Support"`
	Status *string `json:"status" validate:"omitempty,oneof=Active Inactive Away"`
}

type MemberResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type MemberListResponse struct {
	Items []MemberResponse `json:"items"`
}
