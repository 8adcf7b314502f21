package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOutput
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Location returns the spa's time zone, or the process zone when the
// App is not wired.
func Location() *time.Location {
	if app != nil && app.Location != nil {
		return app.Location
	}
	return time.Local
}

// ParseDate reads a YYYY-MM-DD argument. Empty means today in the spa's
// time zone.
func ParseDate(raw string) (sharedDomain.Date, error) {
	if raw == "" {
		return sharedDomain.DateOf(time.Now(), Location()), nil
	}
	d, err := sharedDomain.ParseDate(raw)
	if err != nil {
		return sharedDomain.Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// FormatPrice renders an amount in cents.
func FormatPrice(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}
