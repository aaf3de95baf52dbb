package domain

import "time"

// WonData is captured when a lead moves to Won and exists only while the
// lead stays there.
type WonData struct {
	Products     []string  `json:"products"`
	FinalPrice   float64   `json:"finalPrice"`
	ClosingNotes string    `json:"closingNotes,omitempty"`
	ClosedAt     time.Time `json:"closedAt"`
}
