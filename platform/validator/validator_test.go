package validator

import "testing"

func TestStageKeyTag(t *testing.T) {
	v := New()

	valid := []string{"lead", "Won", "proposal_sent", "stage-2"}
	for _, key := range valid {
		if err := v.Var(key, "stagekey"); err != nil {
			t.Errorf("expected %q to be a valid stage key: %v", key, err)
		}
	}

	invalid := []string{"", "2nd", "has space", "émoji"}
	for _, key := range invalid {
		if err := v.Var(key, "stagekey"); err == nil {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}
