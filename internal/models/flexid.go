package models

import (
	"encoding/json"
)

// FlexID accepts both JSON strings and JSON numbers, since hat ids
// are opaque and older clients send numeric ids.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}
