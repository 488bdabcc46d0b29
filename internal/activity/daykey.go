package activity

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical day key layout.
const DateLayout = "2006-01-02"

// ErrUnknownTimezone is returned when an IANA identifier cannot be loaded.
var ErrUnknownTimezone = errors.New("unknown timezone")

// LoadLocation resolves an IANA timezone identifier. An empty string means UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownTimezone, timezone, err)
	}
	return loc, nil
}

// DateKey returns the local calendar date of t in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// LocalDateKey is DateKey for a timezone given by name.
func LocalDateKey(t time.Time, timezone string) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return DateKey(t, loc), nil
}

// StartOfDay returns the first instant of the local day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return AddDays(t, 0, loc)
}

// AddDays returns the first instant of the local day that lies days calendar
// days after the one containing t. In zones that skip midnight on a DST
// change the day starts at the transition instead.
func AddDays(t time.Time, days int, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := time.Date(local.Year(), local.Month(), local.Day()+days, 12, 0, 0, 0, time.UTC).Date()

	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if my, mm, md := midnight.Date(); my == y && mm == m && md == d {
		return midnight
	}
	start, _ := time.Date(y, m, d, 12, 0, 0, 0, loc).ZoneBounds()
	return start
}

// ShiftKey moves a YYYY-MM-DD key by days calendar days.
func ShiftKey(key string, days int) (string, bool) {
	d, err := time.Parse(DateLayout, key)
	if err != nil {
		return "", false
	}
	return d.AddDate(0, 0, days).Format(DateLayout), true
}

// dayNumber counts days since the Unix epoch for a YYYY-MM-DD key. The key
// is read as a plain calendar date, never through a timezone.
func dayNumber(key string) (int64, bool) {
	d, err := time.Parse(DateLayout, key)
	if err != nil {
		return 0, false
	}
	return d.Unix() / 86400, true
}
