package schedule

import (
	"context"
	"time"

	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
)

// Store is the persistence gateway the orchestrator depends on. The pgx
// implementation lives in internal/storage; tests substitute an in-memory fake.
type Store interface {
	// FindVet returns nil (no error) when the vet is unknown.
	FindVet(ctx context.Context, vetUserID string) (*model.Vet, error)
	// HasTemplates reports whether any schedule template exists for the vet.
	HasTemplates(ctx context.Context, vetUserID string) (bool, error)
	// CreateScheduleAndSlots persists every template with its generated slots
	// inside one transaction. Slot rows violating the (vet, date, start_time)
	// uniqueness key are skipped, not errored on.
	CreateScheduleAndSlots(ctx context.Context, batches []TemplateWithSlots) (CreateResult, error)
	// ListTemplates returns the vet's templates ordered Monday-first.
	// An empty day means no weekday filter.
	ListTemplates(ctx context.Context, vetUserID string, day model.Weekday) ([]model.ScheduleTemplate, error)
	// ListSlots returns slot rows (with the owning template's duration joined
	// in) ordered by date then start time.
	ListSlots(ctx context.Context, q SlotQuery) ([]model.Slot, error)
	// ListSlotKeysInRange returns the (date, start time) pairs of persisted
	// slots within [from, to], for dedup lookups.
	ListSlotKeysInRange(ctx context.Context, vetUserID string, from, to time.Time) ([]SlotKey, error)
	// InsertSlots bulk-inserts with duplicate-skip semantics and reports the
	// rows actually written.
	InsertSlots(ctx context.Context, vetUserID string, from, to time.Time, slots []model.Slot) (int, error)
	// AggregateUtilization computes the per-vet monthly report, excluding vets
	// whose slot count does not exceed minSlots, ordered by total hours desc.
	AggregateUtilization(ctx context.Context, month, year, minSlots int) ([]VetUtilization, error)
}

// TemplateWithSlots pairs one weekly template with its expanded slots for the
// transactional create.
type TemplateWithSlots struct {
	Template model.ScheduleTemplate
	Slots    []SlotDescriptor
}

type CreateResult struct {
	CreatedTemplates int
	CreatedSlots     int
}

// SlotKey is the deduplication key for a persisted slot.
type SlotKey struct {
	Date      time.Time
	StartTime time.Time
}

type SlotQuery struct {
	VetUserID string
	Date      *time.Time
	Limit     int
	Offset    int
}

// VetUtilization is one row of the monthly clinic report.
type VetUtilization struct {
	VetUserID      string
	VetName        string
	Email          string
	Specialisation string
	TotalSlots     int
	WorkingDays    int
	SlotDurations  []int
	TotalHours     float64
	AvgSlotsPerDay float64
}
