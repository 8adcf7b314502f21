package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeLayout is the fixed-width UTC layout used to store instants as TEXT so
// that lexical order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DateLayout is the calendar-day layout used for date columns.
const DateLayout = "2006-01-02"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Timestamp scans instants stored natively (PostgreSQL) or as TEXT (SQLite).
type Timestamp struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	parsed, ok, err := parseTimeValue(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("timestamp: unexpected NULL")
	}
	t.Time = parsed
	return nil
}

// NullTimestamp is the nullable variant of Timestamp.
type NullTimestamp struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *NullTimestamp) Scan(src any) error {
	parsed, ok, err := parseTimeValue(src)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed, ok
	return nil
}

// Ptr returns nil for NULL, otherwise a pointer to the instant.
func (t NullTimestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Value implements driver.Valuer.
func (t NullTimestamp) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}

func parseTimeValue(src any) (time.Time, bool, error) {
	switch v := src.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), true, nil
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	default:
		return time.Time{}, false, fmt.Errorf("timestamp: cannot scan %T", src)
	}
}

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	DateLayout,
}

func parseTimeText(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("timestamp: unrecognised format %q", s)
}
