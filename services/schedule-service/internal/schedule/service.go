// Package schedule turns weekly recurrence templates into materialized,
// bookable slots and answers the read-side views over them.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pawcare/vetsched/services/schedule-service/internal/calendar"
	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

const (
	defaultDurationDays = 30
	minDurationDays     = 1
	maxDurationDays     = 365
	minSlotMinutes      = 10
	maxSlotMinutes      = 120
)

type Service struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger
}

// NewService wires the orchestrator. loc is the clinic-local timezone used for
// weekday alignment and date parsing.
func NewService(store Store, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger}
}

// DayTemplate is one weekly recurrence rule as submitted by the caller.
type DayTemplate struct {
	DayOfWeek    string
	StartTime    string
	EndTime      string
	SlotDuration int
}

type CreateScheduleInput struct {
	VetUserID    string
	Days         []DayTemplate
	StartDate    string
	DurationDays int // 0 means the 30-day default
}

type CreateScheduleResult struct {
	CreatedTemplates int
	CreatedSlots     int
}

// CreateSchedule validates the weekly templates, expands them across the
// requested horizon and persists templates plus slots in one transaction.
// A vet may only have a schedule established once.
func (s *Service) CreateSchedule(ctx context.Context, in CreateScheduleInput) (CreateScheduleResult, error) {
	durationDays := in.DurationDays
	if durationDays == 0 {
		durationDays = defaultDurationDays
	}
	if err := s.validateScheduleData(in.Days, in.StartDate, durationDays); err != nil {
		return CreateScheduleResult{}, err
	}

	startDate, err := calendar.ParseDate(in.StartDate, s.loc)
	if err != nil {
		return CreateScheduleResult{}, validationError("invalid start date format")
	}

	if err := s.requireActiveVet(ctx, in.VetUserID); err != nil {
		return CreateScheduleResult{}, err
	}

	exists, err := s.store.HasTemplates(ctx, in.VetUserID)
	if err != nil {
		return CreateScheduleResult{}, internalError(err)
	}
	if exists {
		return CreateScheduleResult{}, conflictError("schedule already exists for this vet")
	}

	horizonEnd := startDate.AddDate(0, 0, durationDays-1)

	batches := make([]TemplateWithSlots, 0, len(in.Days))
	for _, day := range in.Days {
		weekday, _ := model.ParseWeekday(day.DayOfWeek)
		windowStart, _ := calendar.ParseTimeOfDay(day.StartTime)
		windowEnd, _ := calendar.ParseTimeOfDay(day.EndTime)

		tmpl := model.ScheduleTemplate{
			ID:           uuid.NewString(),
			VetUserID:    in.VetUserID,
			DayOfWeek:    weekday,
			StartTime:    windowStart,
			EndTime:      windowEnd,
			SlotDuration: day.SlotDuration,
		}

		firstDate := calendar.AlignToWeekday(startDate, weekday)
		slots := GenerateSlots(windowStart, windowEnd, day.SlotDuration, firstDate, horizonEnd, in.VetUserID)

		batches = append(batches, TemplateWithSlots{Template: tmpl, Slots: slots})
	}

	res, err := s.store.CreateScheduleAndSlots(ctx, batches)
	if err != nil {
		return CreateScheduleResult{}, internalError(err)
	}

	s.logger.Info("schedule created",
		"vet_user_id", in.VetUserID,
		"templates", res.CreatedTemplates,
		"slots", res.CreatedSlots,
	)
	return CreateScheduleResult{
		CreatedTemplates: res.CreatedTemplates,
		CreatedSlots:     res.CreatedSlots,
	}, nil
}

type AddSlotsResult struct {
	AddedSlots int
	StartDate  string
	EndDate    string
}

// AddSlots extends an existing schedule into [startDate, endDate], skipping
// every slot that is already persisted. The generator has no memory of prior
// runs, so deduplication happens here against the stored (date, start time)
// keys before anything is written.
func (s *Service) AddSlots(ctx context.Context, vetUserID, startDate, endDate string) (AddSlotsResult, error) {
	if startDate == "" || endDate == "" {
		return AddSlotsResult{}, validationError("start date and end date are required")
	}
	from, err := calendar.ParseDate(startDate, s.loc)
	if err != nil {
		return AddSlotsResult{}, validationError("invalid start date format")
	}
	to, err := calendar.ParseDate(endDate, s.loc)
	if err != nil {
		return AddSlotsResult{}, validationError("invalid end date format")
	}
	if !from.Before(to) {
		return AddSlotsResult{}, validationError("start date must be before end date")
	}

	if err := s.requireActiveVet(ctx, vetUserID); err != nil {
		return AddSlotsResult{}, err
	}

	templates, err := s.store.ListTemplates(ctx, vetUserID, "")
	if err != nil {
		return AddSlotsResult{}, internalError(err)
	}
	if len(templates) == 0 {
		return AddSlotsResult{}, notFoundError("no schedule found for this vet")
	}

	var candidates []model.Slot
	for _, tmpl := range templates {
		firstDate := calendar.AlignToWeekday(from, tmpl.DayOfWeek)
		for _, d := range GenerateSlots(tmpl.StartTime, tmpl.EndTime, tmpl.SlotDuration, firstDate, to, vetUserID) {
			candidates = append(candidates, model.Slot{
				ID:         uuid.NewString(),
				TemplateID: tmpl.ID,
				VetUserID:  vetUserID,
				Date:       d.Date,
				StartTime:  d.StartTime,
			})
		}
	}
	if len(candidates) == 0 {
		return AddSlotsResult{}, conflictError("no slots can be generated in the given date range")
	}

	existingKeys, err := s.store.ListSlotKeysInRange(ctx, vetUserID, from, to)
	if err != nil {
		return AddSlotsResult{}, internalError(err)
	}
	existing := make(map[string]struct{}, len(existingKeys))
	for _, k := range existingKeys {
		existing[dedupKey(k.Date, k.StartTime)] = struct{}{}
	}

	fresh := candidates[:0]
	for _, slot := range candidates {
		if _, dup := existing[dedupKey(slot.Date, slot.StartTime)]; !dup {
			fresh = append(fresh, slot)
		}
	}
	if len(fresh) == 0 {
		return AddSlotsResult{}, conflictError("all slots in the given date range already exist")
	}

	inserted, err := s.store.InsertSlots(ctx, vetUserID, from, to, fresh)
	if err != nil {
		return AddSlotsResult{}, internalError(err)
	}

	s.logger.Info("slots added",
		"vet_user_id", vetUserID,
		"added", inserted,
		"from", calendar.FormatDate(from),
		"to", calendar.FormatDate(to),
	)
	return AddSlotsResult{
		AddedSlots: inserted,
		StartDate:  calendar.FormatDate(from),
		EndDate:    calendar.FormatDate(to),
	}, nil
}

// TemplateView is the display form of one weekly template. Times are
// truncated to "HH:MM" for presentation.
type TemplateView struct {
	TemplateID   string
	VetUserID    string
	DayOfWeek    string
	StartTime    string
	EndTime      string
	SlotDuration int
}

// GetVetSchedule returns the vet's templates, optionally filtered to one
// weekday, ordered in natural week order (Monday first).
func (s *Service) GetVetSchedule(ctx context.Context, vetUserID, dayChoice string) ([]TemplateView, error) {
	if err := s.requireVet(ctx, vetUserID); err != nil {
		return nil, err
	}

	var day model.Weekday
	if dayChoice != "" {
		parsed, ok := model.ParseWeekday(dayChoice)
		if !ok {
			return nil, validationError(fmt.Sprintf("invalid day of week: %s", dayChoice))
		}
		day = parsed
	}

	templates, err := s.store.ListTemplates(ctx, vetUserID, day)
	if err != nil {
		return nil, internalError(err)
	}

	views := make([]TemplateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, TemplateView{
			TemplateID:   t.ID,
			VetUserID:    t.VetUserID,
			DayOfWeek:    t.DayOfWeek.String(),
			StartTime:    calendar.FormatClock(t.StartTime),
			EndTime:      calendar.FormatClock(t.EndTime),
			SlotDuration: t.SlotDuration,
		})
	}
	return views, nil
}

// SlotView is the display form of one slot; end time is derived from the
// owning template's duration, it is not stored.
type SlotView struct {
	SlotID     string
	TemplateID string
	VetUserID  string
	Date       string
	StartTime  string
	EndTime    string
}

type SlotListResult struct {
	Slots  []SlotView
	Limit  int
	Offset int
}

// ListSlots returns the vet's slots ordered by date then start time. Offset is
// always applied; limit only when positive.
func (s *Service) ListSlots(ctx context.Context, vetUserID, dateChoice string, limit, offset int) (SlotListResult, error) {
	if offset < 0 {
		return SlotListResult{}, validationError("offset must not be negative")
	}
	if err := s.requireVet(ctx, vetUserID); err != nil {
		return SlotListResult{}, err
	}

	q := SlotQuery{VetUserID: vetUserID, Limit: limit, Offset: offset}
	if dateChoice != "" {
		date, err := calendar.ParseDate(dateChoice, s.loc)
		if err != nil {
			return SlotListResult{}, validationError("invalid date format")
		}
		q.Date = &date
	}

	slots, err := s.store.ListSlots(ctx, q)
	if err != nil {
		return SlotListResult{}, internalError(err)
	}

	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		end := slot.StartTime.Add(time.Duration(slot.SlotDuration) * time.Minute)
		views = append(views, SlotView{
			SlotID:     slot.ID,
			TemplateID: slot.TemplateID,
			VetUserID:  slot.VetUserID,
			Date:       calendar.FormatDate(slot.Date),
			StartTime:  calendar.FormatTimeOfDay(slot.StartTime),
			EndTime:    calendar.FormatTimeOfDay(end),
		})
	}
	return SlotListResult{Slots: views, Limit: limit, Offset: offset}, nil
}

// ClinicStatistics aggregates monthly utilization per vet. Vets whose slot
// count does not exceed minSlots are excluded; rows come back ordered by total
// scheduled hours descending.
func (s *Service) ClinicStatistics(ctx context.Context, month, year, minSlots int) ([]VetUtilization, error) {
	if month < 1 || month > 12 {
		return nil, validationError("month must be between 1 and 12")
	}
	if year < 1970 || year > 2100 {
		return nil, validationError("year must be between 1970 and 2100")
	}
	if minSlots < 0 {
		return nil, validationError("minimum slot count must not be negative")
	}

	rows, err := s.store.AggregateUtilization(ctx, month, year, minSlots)
	if err != nil {
		return nil, internalError(err)
	}
	return rows, nil
}

func (s *Service) validateScheduleData(days []DayTemplate, startDate string, durationDays int) error {
	if len(days) == 0 {
		return validationError("schedule data must be a non-empty list")
	}
	if startDate == "" {
		return validationError("start date is required")
	}
	if durationDays < minDurationDays || durationDays > maxDurationDays {
		return validationError("duration must be between 1 and 365 days")
	}

	seen := make(map[model.Weekday]struct{}, len(days))
	for _, day := range days {
		weekday, ok := model.ParseWeekday(day.DayOfWeek)
		if !ok {
			return validationError(fmt.Sprintf("invalid day of week: %s", day.DayOfWeek))
		}
		if _, dup := seen[weekday]; dup {
			return validationError(fmt.Sprintf("duplicate day of week: %s", weekday))
		}
		seen[weekday] = struct{}{}

		if day.StartTime == "" || day.EndTime == "" {
			return validationError("day start and end time are required")
		}
		if day.SlotDuration < minSlotMinutes || day.SlotDuration > maxSlotMinutes {
			return validationError("slot duration must be between 10 and 120 minutes")
		}

		start, err := calendar.ParseTimeOfDay(day.StartTime)
		if err != nil {
			return validationError("invalid time format, expected HH:MM:SS")
		}
		end, err := calendar.ParseTimeOfDay(day.EndTime)
		if err != nil {
			return validationError("invalid time format, expected HH:MM:SS")
		}
		if !start.Before(end) {
			return validationError("start time must be before end time")
		}
	}
	return nil
}

// requireVet fails with NotFound for unknown or soft-deleted vets.
func (s *Service) requireVet(ctx context.Context, vetUserID string) error {
	vet, err := s.store.FindVet(ctx, vetUserID)
	if err != nil {
		return internalError(err)
	}
	if vet == nil || vet.IsDeleted {
		return notFoundError("vet not found")
	}
	return nil
}

// requireActiveVet additionally rejects inactive vets with Conflict; an
// inactive vet's schedule must not be created or extended.
func (s *Service) requireActiveVet(ctx context.Context, vetUserID string) error {
	vet, err := s.store.FindVet(ctx, vetUserID)
	if err != nil {
		return internalError(err)
	}
	if vet == nil || vet.IsDeleted {
		return notFoundError("vet not found")
	}
	if !vet.IsActive {
		return conflictError("vet is inactive, cannot modify schedule")
	}
	return nil
}

func dedupKey(date, startTime time.Time) string {
	return calendar.FormatDate(date) + "T" + calendar.FormatTimeOfDay(startTime)
}
