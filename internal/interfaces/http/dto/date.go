package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date accepts either an RFC 3339 timestamp or a plain YYYY-MM-DD date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
}

// Ptr returns the time or nil for an absent date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
