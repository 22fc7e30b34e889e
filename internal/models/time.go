package models

import (
	"encoding/json"
	"time"
)

// Time wraps time.Time, always normalized to UTC, matching the teacher's
// common/models.Time idiom minus the SQL driver.Valuer/Scanner methods,
// which have no purpose now that state lives in JSON documents rather than
// relational rows.
type Time struct {
	time.Time
}

func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Round(time.Microsecond)}
}

func Now() Time {
	return NewTime(time.Now())
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var inner time.Time
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	t.Time = inner.UTC()
	return nil
}

func (t Time) IsZero() bool {
	return t.Time.IsZero()
}
