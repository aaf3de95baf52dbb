package repository

import (
	"time"

	"github.com/google/uuid"
)

// Roles of a team member.
const (
	RoleManager = "Manager"
	RoleSales   = "Sales"
	RoleSupport = "Support"
)

// Availability statuses of a team member.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusAway     = "Away"
)

type Member struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	Role           string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CreateMemberParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	Role           string
	Status         string
}

type UpdateMemberParams struct {
	Name   *string
	Role   *string
	Status *string
}
