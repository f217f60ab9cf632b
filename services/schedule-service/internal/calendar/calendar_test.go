package calendar

import (
	"testing"
	"time"

	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

func TestISOWeekday(t *testing.T) {
	// 2025-06-02 is a Monday, 2025-06-08 a Sunday.
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		got := ISOWeekday(monday.AddDate(0, 0, i))
		if got != i+1 {
			t.Fatalf("day %d: expected ordinal %d, got %d", i, i+1, got)
		}
	}
}

func TestAlignToWeekday_SameDay(t *testing.T) {
	monday := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	got := AlignToWeekday(monday, model.Monday)
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAlignToWeekday_Forward(t *testing.T) {
	// Wednesday ref aligned to Monday must jump forward to the next week,
	// never backwards.
	wednesday := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	got := AlignToWeekday(wednesday, model.Monday)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAlignToWeekday_AlwaysWithinWeek(t *testing.T) {
	ref := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := ref.AddDate(0, 0, offset)
		for _, target := range model.Weekdays {
			got := AlignToWeekday(day, target)
			if ISOWeekday(got) != target.Ordinal() {
				t.Fatalf("ref %s target %s: landed on ordinal %d", day, target, ISOWeekday(got))
			}
			if got.Before(Midnight(day)) {
				t.Fatalf("ref %s target %s: aligned date %s is in the past", day, target, got)
			}
			if !got.Before(day.AddDate(0, 0, 7)) {
				t.Fatalf("ref %s target %s: aligned date %s is more than a week out", day, target, got)
			}
		}
	}
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	got, err := ParseDate("2025-12-01", loc)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2025, 12, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := ParseDate("01-12-2025", loc); err == nil {
		t.Fatal("expected error for non ISO date")
	}
	if _, err := ParseDate("2025-13-40", loc); err == nil {
		t.Fatal("expected error for out-of-range date")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30:00")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	want := time.Date(1970, 1, 1, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	short, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay short form: %v", err)
	}
	if !short.Equal(want) {
		t.Fatalf("expected %s, got %s", want, short)
	}

	if _, err := ParseTimeOfDay("9:3"); err == nil {
		t.Fatal("expected error for malformed clock value")
	}
	if _, err := ParseTimeOfDay("25:00:00"); err == nil {
		t.Fatal("expected error for hour out of range")
	}
}

func TestFormats(t *testing.T) {
	ts := time.Date(1970, 1, 1, 8, 5, 0, 0, time.UTC)
	if got := FormatTimeOfDay(ts); got != "08:05:00" {
		t.Fatalf("FormatTimeOfDay: got %q", got)
	}
	if got := FormatClock(ts); got != "08:05" {
		t.Fatalf("FormatClock: got %q", got)
	}
	if got := FormatDate(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)); got != "2025-06-02" {
		t.Fatalf("FormatDate: got %q", got)
	}
	if got := FormatTimeOfDay(time.Time{}); got != "" {
		t.Fatalf("FormatTimeOfDay zero: got %q", got)
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Fatalf("FormatDate zero: got %q", got)
	}
}

func TestCombineDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	date := time.Date(2025, 12, 1, 0, 0, 0, 0, loc)
	tod := time.Date(1970, 1, 1, 14, 30, 0, 0, time.UTC)
	got := CombineDateTime(date, tod)
	want := time.Date(2025, 12, 1, 14, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
