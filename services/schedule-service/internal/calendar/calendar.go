// Package calendar holds the pure date/time helpers for schedule expansion:
// weekday alignment on a 1=Monday..7=Sunday numbering, time-of-day parsing
// anchored to 1970-01-01, and the canonical string formats used on the wire.
package calendar

import (
	"fmt"
	"time"

	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

const (
	DateLayout  = "2006-01-02"
	timeLayout  = "15:04:05"
	clockLayout = "15:04"
)

// timeAnchor is the date that carries pure times of day, matching how
// template windows are stored.
var timeAnchor = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// ISOWeekday maps Go's weekday to 1=Monday .. 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AlignToWeekday returns the first date on or after ref whose weekday equals
// target, normalized to midnight. If ref already falls on target it is
// returned unchanged (offset 0).
func AlignToWeekday(ref time.Time, target model.Weekday) time.Time {
	day := Midnight(ref)
	diff := target.Ordinal() - ISOWeekday(day)
	if diff < 0 {
		diff += 7
	}
	return day.AddDate(0, 0, diff)
}

// Midnight truncates t to the start of its calendar day, keeping the location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate reads a "YYYY-MM-DD" string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseTimeOfDay reads "HH:MM:SS" (or "HH:MM") and anchors it to 1970-01-01,
// the same convention the template windows are stored with.
func ParseTimeOfDay(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, clockLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return timeAnchor.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM:SS", s)
}

// FormatTimeOfDay renders a zero-padded 24h clock string with seconds forced
// to "00". The zero time renders as the empty string.
func FormatTimeOfDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// FormatClock renders the "HH:MM" display form used by schedule views.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(clockLayout)
}

// FormatDate renders a zero-padded "YYYY-MM-DD" string, empty for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// CombineDateTime places a time of day onto a calendar date, in the date's location.
func CombineDateTime(date, timeOfDay time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, date.Location())
}
