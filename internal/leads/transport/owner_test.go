package transport

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerRefUnmarshal(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name    string
		payload string
		want    *uuid.UUID
		set     bool
	}{
		{"omitted", `{}`, nil, false},
		{"null", `{"owner":null}`, nil, true},
		{"sentinel", `{"owner":"Unassigned"}`, nil, true},
		{"sentinel lower case", `{"owner":"unassigned"}`, nil, true},
		{"uuid", `{"owner":"` + id.String() + `"}`, &id, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Owner OwnerRef `json:"owner"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &body))
			assert.Equal(t, tc.set, body.Owner.Set)
			assert.Equal(t, tc.want, body.Owner.Value)
		})
	}
}

func TestOwnerRefRejectsGarbage(t *testing.T) {
	var body struct {
		Owner OwnerRef `json:"owner"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"owner":"bob"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"owner":42}`), &body))
}

func TestOwnerRefMarshalsSentinel(t *testing.T) {
	out, err := json.Marshal(LeadResponse{Owner: Owner(nil)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"owner":"Unassigned"`)

	id := uuid.New()
	out, err = json.Marshal(LeadResponse{Owner: Owner(&id)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"owner":"`+id.String()+`"`)
}
