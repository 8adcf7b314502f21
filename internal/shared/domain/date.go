package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDate  = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid time of day, want HH:MM")
)

// Date is a calendar day with no zone attached. Instants are derived from it
// only through an explicit *time.Location.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate normalises out-of-range components the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// MustDate is ParseDate for literals.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar day of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	t = t.In(loc)
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

func (d Date) Year() int         { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int          { return d.day }
func (d Date) IsZero() bool      { return d.year == 0 && d.month == 0 && d.day == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// At returns the instant of clock c on d in loc. Clocks past 24:00 roll into
// the next day.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, int(c), 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.year, d.month, d.day+n)
}

func (d Date) Before(other Date) bool { return d.compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.compare(other) > 0 }

func (d Date) compare(other Date) int {
	switch {
	case d.year != other.year:
		return d.year - other.year
	case d.month != other.month:
		return int(d.month) - int(other.month)
	default:
		return d.day - other.day
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is a time of day in minutes since midnight. EndOfDay (24:00) is a
// valid exclusive upper bound.
type Clock int

const EndOfDay Clock = 24 * 60

// NewClock builds a clock from hours and minutes.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM". A trailing ":SS" of zeros is tolerated.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && strings.HasSuffix(s, ":00") {
		s = s[:5]
	}
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hours, err1 := strconv.Atoi(h)
	minutes, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hours < 0 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	c := NewClock(hours, minutes)
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return c, nil
}

// ClockOf returns the time of day of t in loc.
func ClockOf(t time.Time, loc *time.Location) Clock {
	t = t.In(loc)
	return NewClock(t.Hour(), t.Minute())
}

// Valid reports whether c lies within 00:00 and 24:00 inclusive.
func (c Clock) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c Clock) Minutes() int { return int(c) }

// Add shifts c by d, truncated to whole minutes.
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Interval is the half-open time-of-day range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

// Overlaps reports whether the two ranges share any minute. Touching ranges
// do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.End-i.Start) * time.Minute
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
