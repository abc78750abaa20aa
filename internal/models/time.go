package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// LocalDateTimeLayout renders a date-time without offset or zone, with up to
// millisecond precision. Trailing zeros of the fraction are trimmed and the
// fraction is dropped entirely when it is zero.
const LocalDateTimeLayout = "2006-01-02T15:04:05.999"

// localDateTimeParseLayout accepts any fraction length on input.
const localDateTimeParseLayout = "2006-01-02T15:04:05.999999999"

// LocalDateTime is a calendar date and time of day with no zone information on
// the wire. The wall clock fields of the wrapped time are written as-is.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime truncates t to the millisecond.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t.Truncate(time.Millisecond)}
}

// ParseLocalDateTime parses s as a naive date-time in the server's local zone.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := time.ParseInLocation(localDateTimeParseLayout, s, time.Local)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("invalid local date-time %q: %w", s, err)
	}
	return LocalDateTime{Time: t}, nil
}

// String implements fmt.Stringer.
func (l LocalDateTime) String() string {
	return l.Time.Format(LocalDateTimeLayout)
}

// MarshalJSON implements json.Marshaler.
func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// TimeResponse represents the response from the time endpoint
type TimeResponse struct {
	Time LocalDateTime `json:"time" swaggertype:"string" example:"2025-10-17T19:23:45.123"`
}

// NewTimeResponse wraps t in a TimeResponse.
func NewTimeResponse(t time.Time) TimeResponse {
	return TimeResponse{Time: NewLocalDateTime(t)}
}
