package trending

import (
	"fmt"
	"strings"
	"time"
)

// Period is the look-back granularity of a trending snapshot.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Periods lists every supported period type in build order.
var Periods = []Period{Daily, Weekly, Monthly}

const dateLayout = "2006-01-02"

// ParsePeriod validates a period type name.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// Valid reports whether p is a supported period type.
func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Length is the trailing window covered by the period.
func (p Period) Length() time.Duration {
	switch p {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Window returns the half-open range [from, to) aggregated for a snapshot dated
// date. The window ends at the close of that UTC day.
func (p Period) Window(date time.Time) (from, to time.Time) {
	to = DateOf(date).Add(24 * time.Hour)
	return to.Add(-p.Length()), to
}

// PreviousWindow is the window of equal length immediately before Window.
func (p Period) PreviousWindow(date time.Time) (from, to time.Time) {
	from, _ = p.Window(date)
	return from.Add(-p.Length()), from
}

// DateOf truncates t to midnight UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. An empty string yields the zero time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// FormatDate renders a snapshot date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
