package schedule

import (
	"testing"
	"time"
)

func tod(hour, min int) time.Time {
	return time.Date(1970, 1, 1, hour, min, 0, 0, time.UTC)
}

func TestGenerateSlots_TwoWeekHorizon(t *testing.T) {
	// Monday 08:00-14:00 with 30 minute slots is 12 slots per occurrence.
	// A 14-day horizon starting on a Monday covers two Mondays.
	firstDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	horizonEnd := firstDate.AddDate(0, 0, 13)

	slots := GenerateSlots(tod(8, 0), tod(14, 0), 30, firstDate, horizonEnd, "vet-1")
	if len(slots) != 24 {
		t.Fatalf("expected 24 slots, got %d", len(slots))
	}

	if !slots[0].StartTime.Equal(firstDate.Add(8 * time.Hour)) {
		t.Fatalf("expected first slot at 08:00, got %s", slots[0].StartTime)
	}
	last := slots[len(slots)-1]
	wantLast := firstDate.AddDate(0, 0, 7).Add(13*time.Hour + 30*time.Minute)
	if !last.StartTime.Equal(wantLast) {
		t.Fatalf("expected last slot at %s, got %s", wantLast, last.StartTime)
	}
	for _, s := range slots {
		if s.VetUserID != "vet-1" {
			t.Fatalf("unexpected vet id %q", s.VetUserID)
		}
		if !s.Date.Equal(firstDate) && !s.Date.Equal(firstDate.AddDate(0, 0, 7)) {
			t.Fatalf("slot landed on unexpected date %s", s.Date)
		}
	}
}

func TestGenerateSlots_DropsTrailingPartial(t *testing.T) {
	// 09:00-10:45 with 30 minute slots fits three full slots; the trailing
	// 15 minutes never becomes a short slot.
	firstDate := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	slots := GenerateSlots(tod(9, 0), tod(10, 45), 30, firstDate, firstDate, "vet-1")
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	wantLast := firstDate.Add(10 * time.Hour)
	if !slots[2].StartTime.Equal(wantLast) {
		t.Fatalf("expected last slot at %s, got %s", wantLast, slots[2].StartTime)
	}
}

func TestGenerateSlots_WindowShorterThanDuration(t *testing.T) {
	firstDate := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	slots := GenerateSlots(tod(9, 0), tod(9, 20), 30, firstDate, firstDate, "vet-1")
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}

func TestGenerateSlots_FirstDateBeyondHorizon(t *testing.T) {
	firstDate := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	horizonEnd := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	slots := GenerateSlots(tod(9, 0), tod(17, 0), 60, firstDate, horizonEnd, "vet-1")
	if len(slots) != 0 {
		t.Fatalf("expected no slots past the horizon, got %d", len(slots))
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	firstDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	horizonEnd := firstDate.AddDate(0, 0, 27)

	a := GenerateSlots(tod(10, 0), tod(12, 0), 20, firstDate, horizonEnd, "vet-1")
	b := GenerateSlots(tod(10, 0), tod(12, 0), 20, firstDate, horizonEnd, "vet-1")
	if len(a) != len(b) {
		t.Fatalf("runs disagree on count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].StartTime.Equal(b[i].StartTime) || !a[i].Date.Equal(b[i].Date) {
			t.Fatalf("runs diverge at index %d", i)
		}
	}
	for i := 1; i < len(a); i++ {
		if !a[i-1].StartTime.Before(a[i].StartTime) {
			t.Fatalf("slots out of order at index %d", i)
		}
	}
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	firstDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if got := GenerateSlots(tod(9, 0), tod(17, 0), 0, firstDate, firstDate, "vet-1"); got != nil {
		t.Fatalf("expected nil for zero duration, got %d slots", len(got))
	}
}
