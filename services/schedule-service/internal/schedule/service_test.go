package schedule

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pawcare/vetsched/services/schedule-service/internal/calendar"
	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

// fakeStore is the in-memory stand-in for the pgx gateway. Unset function
// fields fall back to permissive defaults so each test only overrides what it
// cares about.
type fakeStore struct {
	vet       *model.Vet
	templates []model.ScheduleTemplate
	slotKeys  []SlotKey
	slots     []model.Slot

	createdBatches []TemplateWithSlots
	insertedSlots  []model.Slot

	findVetErr error
	utilRows   []VetUtilization
	utilCalls  []([3]int)
}

func (f *fakeStore) FindVet(ctx context.Context, vetUserID string) (*model.Vet, error) {
	if f.findVetErr != nil {
		return nil, f.findVetErr
	}
	if f.vet != nil && f.vet.VetUserID == vetUserID {
		return f.vet, nil
	}
	return nil, nil
}

func (f *fakeStore) HasTemplates(ctx context.Context, vetUserID string) (bool, error) {
	return len(f.templates) > 0, nil
}

func (f *fakeStore) CreateScheduleAndSlots(ctx context.Context, batches []TemplateWithSlots) (CreateResult, error) {
	f.createdBatches = batches
	res := CreateResult{CreatedTemplates: len(batches)}
	for _, b := range batches {
		res.CreatedSlots += len(b.Slots)
	}
	return res, nil
}

func (f *fakeStore) ListTemplates(ctx context.Context, vetUserID string, day model.Weekday) ([]model.ScheduleTemplate, error) {
	if day == "" {
		return f.templates, nil
	}
	var out []model.ScheduleTemplate
	for _, t := range f.templates {
		if t.DayOfWeek == day {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSlots(ctx context.Context, q SlotQuery) ([]model.Slot, error) {
	return f.slots, nil
}

func (f *fakeStore) ListSlotKeysInRange(ctx context.Context, vetUserID string, from, to time.Time) ([]SlotKey, error) {
	return f.slotKeys, nil
}

func (f *fakeStore) InsertSlots(ctx context.Context, vetUserID string, from, to time.Time, slots []model.Slot) (int, error) {
	f.insertedSlots = slots
	return len(slots), nil
}

func (f *fakeStore) AggregateUtilization(ctx context.Context, month, year, minSlots int) ([]VetUtilization, error) {
	f.utilCalls = append(f.utilCalls, [3]int{month, year, minSlots})
	return f.utilRows, nil
}

func activeVet(id string) *model.Vet {
	return &model.Vet{VetUserID: id, DisplayName: "Dr. Example", IsActive: true}
}

func newTestService(store Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, time.UTC, logger)
}

func mondayTemplate(vetID string) model.ScheduleTemplate {
	start, _ := calendar.ParseTimeOfDay("08:00:00")
	end, _ := calendar.ParseTimeOfDay("14:00:00")
	return model.ScheduleTemplate{
		ID:           "tmpl-1",
		VetUserID:    vetID,
		DayOfWeek:    model.Monday,
		StartTime:    start,
		EndTime:      end,
		SlotDuration: 30,
	}
}

func TestCreateSchedule_TwoWeekMonday(t *testing.T) {
	store := &fakeStore{vet: activeVet("vet-1")}
	svc := newTestService(store)

	res, err := svc.CreateSchedule(context.Background(), CreateScheduleInput{
		VetUserID: "vet-1",
		Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 30},
		},
		StartDate:    "2025-06-02", // a Monday
		DurationDays: 14,
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if res.CreatedTemplates != 1 {
		t.Fatalf("expected 1 template, got %d", res.CreatedTemplates)
	}
	// 12 slots per Monday, two Mondays inside 14 days.
	if res.CreatedSlots != 24 {
		t.Fatalf("expected 24 slots, got %d", res.CreatedSlots)
	}

	if len(store.createdBatches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(store.createdBatches))
	}
	batch := store.createdBatches[0]
	if batch.Template.ID == "" {
		t.Fatal("expected a generated template id")
	}
	if batch.Template.DayOfWeek != model.Monday {
		t.Fatalf("expected monday template, got %s", batch.Template.DayOfWeek)
	}
	first := batch.Slots[0]
	wantFirst := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	if !first.StartTime.Equal(wantFirst) {
		t.Fatalf("expected first slot %s, got %s", wantFirst, first.StartTime)
	}
}

func TestCreateSchedule_DefaultDuration(t *testing.T) {
	store := &fakeStore{vet: activeVet("vet-1")}
	svc := newTestService(store)

	res, err := svc.CreateSchedule(context.Background(), CreateScheduleInput{
		VetUserID: "vet-1",
		Days: []DayTemplate{
			{DayOfWeek: "friday", StartTime: "09:00:00", EndTime: "10:00:00", SlotDuration: 60},
		},
		StartDate: "2025-06-06", // a Friday; 30-day default covers 5 Fridays
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if res.CreatedSlots != 5 {
		t.Fatalf("expected 5 slots over the 30-day default, got %d", res.CreatedSlots)
	}
}

func TestCreateSchedule_AlreadyExists(t *testing.T) {
	store := &fakeStore{vet: activeVet("vet-1"), templates: []model.ScheduleTemplate{mondayTemplate("vet-1")}}
	svc := newTestService(store)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleInput{
		VetUserID: "vet-1",
		Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 30},
		},
		StartDate: "2025-06-02",
	})
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateSchedule_Validation(t *testing.T) {
	okDay := DayTemplate{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 30}
	cases := []struct {
		name string
		in   CreateScheduleInput
	}{
		{"empty schedule data", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02"}},
		{"missing start date", CreateScheduleInput{VetUserID: "vet-1", Days: []DayTemplate{okDay}}},
		{"duration too long", CreateScheduleInput{VetUserID: "vet-1", Days: []DayTemplate{okDay}, StartDate: "2025-06-02", DurationDays: 366}},
		{"negative duration", CreateScheduleInput{VetUserID: "vet-1", Days: []DayTemplate{okDay}, StartDate: "2025-06-02", DurationDays: -5}},
		{"invalid weekday", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "someday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 30},
		}}},
		{"duplicate weekday", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{okDay, okDay}}},
		{"missing times", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "monday", SlotDuration: 30},
		}}},
		{"slot too short", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 5},
		}}},
		{"slot too long", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 180},
		}}},
		{"malformed time", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "8 o'clock", EndTime: "14:00:00", SlotDuration: 30},
		}}},
		{"start not before end", CreateScheduleInput{VetUserID: "vet-1", StartDate: "2025-06-02", Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "14:00:00", EndTime: "08:00:00", SlotDuration: 30},
		}}},
		{"malformed start date", CreateScheduleInput{VetUserID: "vet-1", StartDate: "02.06.2025", Days: []DayTemplate{okDay}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{vet: activeVet("vet-1")}
			svc := newTestService(store)
			_, err := svc.CreateSchedule(context.Background(), tc.in)
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.createdBatches != nil {
				t.Fatal("nothing should be persisted on validation failure")
			}
		})
	}
}

func TestCreateSchedule_VetChecks(t *testing.T) {
	in := CreateScheduleInput{
		VetUserID: "vet-1",
		Days: []DayTemplate{
			{DayOfWeek: "monday", StartTime: "08:00:00", EndTime: "14:00:00", SlotDuration: 30},
		},
		StartDate: "2025-06-02",
	}

	t.Run("unknown vet", func(t *testing.T) {
		svc := newTestService(&fakeStore{})
		_, err := svc.CreateSchedule(context.Background(), in)
		if KindOf(err) != KindNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("soft-deleted vet", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: &model.Vet{VetUserID: "vet-1", IsActive: true, IsDeleted: true}})
		_, err := svc.CreateSchedule(context.Background(), in)
		if KindOf(err) != KindNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("inactive vet", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: &model.Vet{VetUserID: "vet-1"}})
		_, err := svc.CreateSchedule(context.Background(), in)
		if KindOf(err) != KindConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestAddSlots_DedupAgainstExisting(t *testing.T) {
	tmpl := mondayTemplate("vet-1")
	// 2025-06-16 and 2025-06-23 are the Mondays in range; mark the first
	// Monday's slots as already persisted.
	var keys []SlotKey
	firstMonday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		keys = append(keys, SlotKey{
			Date:      firstMonday,
			StartTime: firstMonday.Add(8*time.Hour + time.Duration(i*30)*time.Minute),
		})
	}
	store := &fakeStore{vet: activeVet("vet-1"), templates: []model.ScheduleTemplate{tmpl}, slotKeys: keys}
	svc := newTestService(store)

	res, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-16", "2025-06-29")
	if err != nil {
		t.Fatalf("AddSlots: %v", err)
	}
	if res.AddedSlots != 12 {
		t.Fatalf("expected 12 fresh slots, got %d", res.AddedSlots)
	}
	if res.StartDate != "2025-06-16" || res.EndDate != "2025-06-29" {
		t.Fatalf("unexpected echo range %s..%s", res.StartDate, res.EndDate)
	}
	for _, s := range store.insertedSlots {
		if s.Date.Equal(firstMonday) {
			t.Fatalf("slot on %s should have been deduplicated", s.Date)
		}
		if s.ID == "" || s.TemplateID != tmpl.ID {
			t.Fatalf("slot not linked to template: %+v", s)
		}
	}
}

func TestAddSlots_AllDuplicates(t *testing.T) {
	tmpl := mondayTemplate("vet-1")
	var keys []SlotKey
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		keys = append(keys, SlotKey{
			Date:      monday,
			StartTime: monday.Add(8*time.Hour + time.Duration(i*30)*time.Minute),
		})
	}
	store := &fakeStore{vet: activeVet("vet-1"), templates: []model.ScheduleTemplate{tmpl}, slotKeys: keys}
	svc := newTestService(store)

	_, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-16", "2025-06-22")
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict for fully duplicated range, got %v", err)
	}
	if store.insertedSlots != nil {
		t.Fatal("no insert should happen when every slot already exists")
	}
}

func TestAddSlots_Failures(t *testing.T) {
	tmpl := mondayTemplate("vet-1")

	t.Run("missing dates", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: activeVet("vet-1")})
		_, err := svc.AddSlots(context.Background(), "vet-1", "", "2025-06-22")
		if KindOf(err) != KindValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("start not before end", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: activeVet("vet-1")})
		_, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-22", "2025-06-16")
		if KindOf(err) != KindValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("no schedule yet", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: activeVet("vet-1")})
		_, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-16", "2025-06-22")
		if KindOf(err) != KindNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("range misses the weekday", func(t *testing.T) {
		// Tuesday through Sunday contains no Monday occurrence.
		svc := newTestService(&fakeStore{vet: activeVet("vet-1"), templates: []model.ScheduleTemplate{tmpl}})
		_, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-17", "2025-06-22")
		if KindOf(err) != KindConflict {
			t.Fatalf("expected conflict for empty expansion, got %v", err)
		}
	})

	t.Run("inactive vet", func(t *testing.T) {
		svc := newTestService(&fakeStore{vet: &model.Vet{VetUserID: "vet-1"}, templates: []model.ScheduleTemplate{tmpl}})
		_, err := svc.AddSlots(context.Background(), "vet-1", "2025-06-16", "2025-06-22")
		if KindOf(err) != KindConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestGetVetSchedule(t *testing.T) {
	tmpl := mondayTemplate("vet-1")
	store := &fakeStore{vet: activeVet("vet-1"), templates: []model.ScheduleTemplate{tmpl}}
	svc := newTestService(store)

	views, err := svc.GetVetSchedule(context.Background(), "vet-1", "")
	if err != nil {
		t.Fatalf("GetVetSchedule: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 template, got %d", len(views))
	}
	v := views[0]
	if v.StartTime != "08:00" || v.EndTime != "14:00" {
		t.Fatalf("expected HH:MM times, got %s-%s", v.StartTime, v.EndTime)
	}
	if v.DayOfWeek != "monday" || v.SlotDuration != 30 {
		t.Fatalf("unexpected view %+v", v)
	}

	if _, err := svc.GetVetSchedule(context.Background(), "vet-1", "MONDAY"); err != nil {
		t.Fatalf("day filter should be case-insensitive: %v", err)
	}
	if _, err := svc.GetVetSchedule(context.Background(), "vet-1", "caturday"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for bad day, got %v", err)
	}
	if _, err := svc.GetVetSchedule(context.Background(), "vet-2", ""); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found for unknown vet, got %v", err)
	}
}

func TestListSlots(t *testing.T) {
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		vet: activeVet("vet-1"),
		slots: []model.Slot{{
			ID:           "slot-1",
			TemplateID:   "tmpl-1",
			VetUserID:    "vet-1",
			Date:         date,
			StartTime:    date.Add(9 * time.Hour),
			SlotDuration: 30,
		}},
	}
	svc := newTestService(store)

	res, err := svc.ListSlots(context.Background(), "vet-1", "", 20, 40)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if res.Limit != 20 || res.Offset != 40 {
		t.Fatalf("pagination not echoed: %+v", res)
	}
	if len(res.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(res.Slots))
	}
	s := res.Slots[0]
	if s.Date != "2025-06-16" || s.StartTime != "09:00:00" {
		t.Fatalf("unexpected slot view %+v", s)
	}
	if s.EndTime != "09:30:00" {
		t.Fatalf("end time must derive from the template duration, got %s", s.EndTime)
	}

	if _, err := svc.ListSlots(context.Background(), "vet-1", "", 0, -1); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for negative offset, got %v", err)
	}
	if _, err := svc.ListSlots(context.Background(), "vet-1", "June 16th", 0, 0); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
}

func TestClinicStatistics(t *testing.T) {
	store := &fakeStore{utilRows: []VetUtilization{{VetUserID: "vet-1", TotalSlots: 80, TotalHours: 40}}}
	svc := newTestService(store)

	rows, err := svc.ClinicStatistics(context.Background(), 12, 2025, 50)
	if err != nil {
		t.Fatalf("ClinicStatistics: %v", err)
	}
	if len(rows) != 1 || rows[0].VetUserID != "vet-1" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if len(store.utilCalls) != 1 || store.utilCalls[0] != [3]int{12, 2025, 50} {
		t.Fatalf("parameters not passed through: %+v", store.utilCalls)
	}

	for _, bad := range [][3]int{{0, 2025, 50}, {13, 2025, 50}, {12, 1900, 50}, {12, 2200, 50}, {12, 2025, -1}} {
		if _, err := svc.ClinicStatistics(context.Background(), bad[0], bad[1], bad[2]); KindOf(err) != KindValidation {
			t.Fatalf("expected validation error for %v, got %v", bad, err)
		}
	}
}
