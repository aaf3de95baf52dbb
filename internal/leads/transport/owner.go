package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Unassigned is the wire sentinel for a lead without an owner.
const Unassigned = "Unassigned"

var errOwnerFormat = errors.New(`owner must be a team member id or "Unassigned"`)

// OwnerRef is a team member id or Unassigned. On input it accepts the
// string "Unassigned", null, or a uuid; Set records that the field was sent.
type OwnerRef struct {
	Value *uuid.UUID
	Set   bool
}

// Owner wraps id for output.
func Owner(id *uuid.UUID) OwnerRef {
	return OwnerRef{Value: id, Set: true}
}

func (o OwnerRef) IsZero() bool {
	return !o.Set
}

func (o OwnerRef) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return json.Marshal(Unassigned)
	}
	return json.Marshal(o.Value.String())
}

func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errOwnerFormat
	}
	return o.parse(raw)
}

// ParseOwnerRef reads the query-string form used by list filters.
func ParseOwnerRef(raw string) (OwnerRef, error) {
	o := OwnerRef{Set: true}
	if err := o.parse(raw); err != nil {
		return OwnerRef{}, err
	}
	return o, nil
}

func (o *OwnerRef) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, Unassigned) {
		o.Value = nil
		return nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return errOwnerFormat
	}
	o.Value = &parsed
	return nil
}
