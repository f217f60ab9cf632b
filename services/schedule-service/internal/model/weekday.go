package model

import "strings"

// Weekday is the lowercase day name stored on schedule templates.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists all days in natural week order, Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayOrdinals = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

// ParseWeekday matches a day name case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	_, ok := weekdayOrdinals[d]
	return d, ok
}

// Ordinal returns the ISO position of the day, 1=Monday .. 7=Sunday, 0 if invalid.
func (d Weekday) Ordinal() int {
	return weekdayOrdinals[d]
}

func (d Weekday) String() string {
	return string(d)
}
