// Package engine decides who owns a newly created lead.
// The selection rules in this file are pure; Service wraps them with the
// persisted settings and cursor.
package engine

import (
	"github.com/google/uuid"
)

// Methods supported by the engine.
const (
	MethodRoundRobin   = "round_robin"
	MethodLoadBalanced = "load_balanced"
)

// Reasons recorded when no owner is chosen.
const (
	ReasonDisabled   = "distribution disabled"
	ReasonNoEligible = "no eligible representative"
)

const (
	roleSales    = "Sales"
	statusActive = "Active"
)

// Member is the roster view the engine needs.
type Member struct {
	ID     uuid.UUID
	Name   string
	Role   string
	Status string
}

// Decision is the outcome of one distribution run. OwnerID is nil when the
// lead stays Unassigned, in which case Reason says why.
type Decision struct {
	OwnerID *uuid.UUID
	Method  string
	Reason  string
}

// Assigned reports whether an owner was picked.
func (d Decision) Assigned() bool {
	return d.OwnerID != nil
}

// Eligible keeps active sales representatives, preserving roster order.
func Eligible(roster []Member) []Member {
	out := make([]Member, 0, len(roster))
	for _, m := range roster {
		if m.Role == roleSales && m.Status == statusActive {
			out = append(out, m)
		}
	}
	return out
}

// NextRoundRobin picks candidates[cursor mod n] and returns the cursor for
// the following call. ok is false for an empty candidate list.
func NextRoundRobin(candidates []Member, cursor int) (pick Member, next int, ok bool) {
	n := len(candidates)
	if n == 0 {
		return Member{}, cursor, false
	}
	if cursor < 0 {
		cursor = 0
	}
	idx := cursor % n
	return candidates[idx], (idx + 1) % n, true
}

// LeastLoaded picks the candidate with the strictly smallest active load.
// Ties go to the earliest candidate in roster order.
func LeastLoaded(candidates []Member, loads map[uuid.UUID]int) (Member, bool) {
	if len(candidates) == 0 {
		return Member{}, false
	}
	best := candidates[0]
	bestLoad := loads[best.ID]
	for _, m := range candidates[1:] {
		if load := loads[m.ID]; load < bestLoad {
			best, bestLoad = m, load
		}
	}
	return best, true
}
