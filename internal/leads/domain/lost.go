package domain

import "strings"

// LostReason is one entry of the fixed list of reasons a deal is lost.
type LostReason struct {
	Key   string
	Label string
}

var LostReasons = []LostReason{
	{Key: "price", Label: "Price too high"},
	{Key: "competitor", Label: "Chose a competitor"},
	{Key: "went_cold", Label: "Went cold"},
	{Key: "unqualified", Label: "Not qualified"},
	{Key: "timing", Label: "Bad timing"},
	{Key: "other", Label: "Other"},
}

// ReasonOther requires a free-text detail.
const ReasonOther = "other"

// ParseLostReason accepts a reason key or its label, case-insensitively.
func ParseLostReason(input string) (LostReason, bool) {
	needle := strings.TrimSpace(input)
	for _, r := range LostReasons {
		if strings.EqualFold(needle, r.Key) || strings.EqualFold(needle, r.Label) {
			return r, true
		}
	}
	return LostReason{}, false
}

// LostNote renders the note recorded for a transition into Lost.
func LostNote(reason LostReason, detail string) string {
	if detail == "" {
		return "Lost reason: " + reason.Label
	}
	return "Lost reason: " + reason.Label + " (" + detail + ")"
}
