package schedule

import (
	"time"

	"github.com/pawcare/vetsched/services/schedule-service/internal/calendar"
)

// SlotDescriptor is one not-yet-persisted bookable unit produced by expansion.
type SlotDescriptor struct {
	Date      time.Time
	StartTime time.Time
	VetUserID string
}

// GenerateSlots expands one weekly template into concrete slot descriptors.
//
// Starting at firstDate (already aligned to the template's weekday) it steps
// forward one calendar week at a time while the date is on or before
// horizonEnd. Each occurrence slices [windowStart, windowEnd) into
// durationMinutes chunks; a trailing remainder shorter than the full duration
// is dropped, never emitted as a short slot.
//
// The expansion is deterministic and keeps no memory of prior runs, so
// deduplication against already-persisted slots is the caller's job.
func GenerateSlots(windowStart, windowEnd time.Time, durationMinutes int, firstDate, horizonEnd time.Time, vetUserID string) []SlotDescriptor {
	if durationMinutes <= 0 {
		return nil
	}
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []SlotDescriptor
	for date := calendar.Midnight(firstDate); !date.After(horizonEnd); date = date.AddDate(0, 0, 7) {
		dayStart := calendar.CombineDateTime(date, windowStart)
		dayEnd := calendar.CombineDateTime(date, windowEnd)

		for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(duration) {
			slots = append(slots, SlotDescriptor{
				Date:      date,
				StartTime: start,
				VetUserID: vetUserID,
			})
		}
	}
	return slots
}
