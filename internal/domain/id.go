package domain

import (
	"encoding/json"
	"fmt"
)

// ID is an identifier as sent by clients. Browser and kiosk clients send
// numeric ids, so a JSON number is accepted and kept in its literal form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", b)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Ptr returns the id as an optional string, nil when id is nil or empty.
func (id *ID) Ptr() *string {
	if id == nil || *id == "" {
		return nil
	}
	s := string(*id)
	return &s
}
