package domain

import (
	"fmt"
	"time"

	"salesflow_backend/platform/apperr"
	"salesflow_backend/platform/sanitize"
)

const maxTextLength = 2000

// WonInput is the extra payload required for a move to Won.
type WonInput struct {
	Products     []string
	FinalPrice   *float64
	ClosingNotes string
}

// LostInput is the extra payload required for a move to Lost.
type LostInput struct {
	Reason string
	Detail string
}

// TransitionRequest asks for lead to move to Target.
type TransitionRequest struct {
	Target string
	Won    *WonInput
	Lost   *LostInput
}

// LeadState is the part of a lead a transition reads.
type LeadState struct {
	Stage       string
	Probability int
	Value       float64
	WonData     *WonData
}

// Policy holds tenant- or deployment-level switches for transitions.
type Policy struct {
	// PreserveProbabilityOverride keeps a manually set probability when
	// moving between open stages.
	PreserveProbabilityOverride bool
}

// Plan is the validated effect of a transition.
type Plan struct {
	Noop        bool
	FromStage   string
	Stage       string
	Probability int
	Value       float64
	// WonData is the value to store; nil clears it.
	WonData    *WonData
	LostReason *LostReason
	LostNote   string
	Activity   string
}

// PlanTransition validates req against board and the current lead state
// and returns the writes to perform. A move to the current stage is a no-op.
func PlanTransition(board Board, lead LeadState, req TransitionRequest, policy Policy, now time.Time) (Plan, error) {
	target, ok := board.Column(req.Target)
	if !ok {
		return Plan{}, apperr.Validation(fmt.Sprintf("unknown stage %q", req.Target))
	}
	if req.Target == lead.Stage {
		return Plan{Noop: true, FromStage: lead.Stage, Stage: lead.Stage}, nil
	}

	plan := Plan{
		FromStage:   lead.Stage,
		Stage:       target.Key,
		Probability: nextProbability(board, lead, target, policy),
		Value:       lead.Value,
		Activity:    "Moved to " + target.Title,
	}

	switch target.Key {
	case StageWon:
		won, err := validateWon(req.Won, now)
		if err != nil {
			return Plan{}, err
		}
		plan.WonData = won
		plan.Value = won.FinalPrice
	case StageLost:
		reason, detail, err := validateLost(req.Lost)
		if err != nil {
			return Plan{}, err
		}
		plan.LostReason = &reason
		plan.LostNote = LostNote(reason, detail)
	}

	return plan, nil
}

func nextProbability(board Board, lead LeadState, target Column, policy Policy) int {
	if IsClosed(target.Key) || !policy.PreserveProbabilityOverride {
		return target.Probability
	}
	source, ok := board.Column(lead.Stage)
	if ok && !IsClosed(lead.Stage) && lead.Probability != source.Probability {
		return lead.Probability
	}
	return target.Probability
}

func validateWon(in *WonInput, now time.Time) (*WonData, error) {
	if in == nil {
		return nil, apperr.Validation("won data is required when moving to Won")
	}
	products := sanitize.StringSet(in.Products)
	if len(products) == 0 {
		return nil, apperr.Validation("at least one product is required")
	}
	if in.FinalPrice == nil {
		return nil, apperr.Validation("final price is required")
	}
	if *in.FinalPrice < 0 {
		return nil, apperr.Validation("final price cannot be negative")
	}
	notes := sanitize.Text(in.ClosingNotes)
	if len(notes) > maxTextLength {
		return nil, apperr.Validation("closing notes cannot exceed 2000 characters")
	}
	return &WonData{
		Products:     products,
		FinalPrice:   *in.FinalPrice,
		ClosingNotes: notes,
		ClosedAt:     now.UTC(),
	}, nil
}

func validateLost(in *LostInput) (LostReason, string, error) {
	if in == nil || in.Reason == "" {
		return LostReason{}, "", apperr.Validation("a lost reason is required when moving to Lost")
	}
	reason, ok := ParseLostReason(in.Reason)
	if !ok {
		return LostReason{}, "", apperr.Validation(fmt.Sprintf("unknown lost reason %q", in.Reason))
	}
	detail := sanitize.Text(in.Detail)
	if len(detail) > maxTextLength {
		return LostReason{}, "", apperr.Validation("lost reason detail cannot exceed 2000 characters")
	}
	if reason.Key == ReasonOther && detail == "" {
		return LostReason{}, "", apperr.Validation("a detail is required for reason Other")
	}
	return reason, detail, nil
}
