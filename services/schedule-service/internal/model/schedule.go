package model

import "time"

// Vet is the locally cached row for a provider from the clinic staff directory.
type Vet struct {
	VetUserID      string
	DisplayName    string
	Email          string
	Specialisation string
	IsActive       bool
	IsDeleted      bool
	UpdatedAt      time.Time
}

// ScheduleTemplate is one weekly recurrence rule: a working window and slot
// granularity for a single weekday. A vet has at most one template per weekday.
type ScheduleTemplate struct {
	ID           string
	VetUserID    string
	DayOfWeek    Weekday
	StartTime    time.Time // time of day, anchored to 1970-01-01
	EndTime      time.Time // time of day, anchored to 1970-01-01
	SlotDuration int       // minutes, 10-120
	CreatedAt    time.Time
}

// Slot is one materialized bookable unit. End time is derived from the owning
// template's slot duration and never stored.
type Slot struct {
	ID           string
	TemplateID   string
	VetUserID    string
	Date         time.Time // calendar date at midnight
	StartTime    time.Time // full instant (date + time of day)
	SlotDuration int       // minutes, joined in from the owning template on reads
	CreatedAt    time.Time
}
