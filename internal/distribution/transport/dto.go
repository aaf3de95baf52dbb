package transport

import (
	"time"

	"github.com/google/uuid"
)

type UpdateSettingsRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	Method  string `json:"method" validate:"required,oneof=round_robin load_balanced"`
}

type SettingsResponse struct {
	Enabled   bool       `json:"enabled"`
	Method    string     `json:"method"`
	Cursor    int        `json:"cursor"`
	UpdatedBy *uuid.UUID `json:"updatedBy,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
