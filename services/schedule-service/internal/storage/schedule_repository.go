package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pawcare/vetsched/libs/db"
	"github.com/pawcare/vetsched/services/schedule-service/internal/model"
	"github.com/pawcare/vetsched/services/schedule-service/internal/outbox"
	"github.com/pawcare/vetsched/services/schedule-service/internal/schedule"
)

// Repository is the pgx implementation of the orchestrator's Store. Slot
// uniqueness on (vet_user_id, date, start_time) is enforced by the database;
// bulk inserts skip conflicting rows instead of failing.
type Repository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outboxRepo: outboxRepo}
}

var _ schedule.Store = (*Repository)(nil)

func (r *Repository) HasTemplates(ctx context.Context, vetUserID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM schedule_templates WHERE vet_user_id = $1)
	`, vetUserID).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateScheduleAndSlots(ctx context.Context, batches []schedule.TemplateWithSlots) (schedule.CreateResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return schedule.CreateResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res schedule.CreateResult
	for _, batch := range batches {
		tmpl := batch.Template
		_, err := tx.Exec(ctx, `
			INSERT INTO schedule_templates (id, vet_user_id, day_of_week, start_time, end_time, slot_duration)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, tmpl.ID, tmpl.VetUserID, tmpl.DayOfWeek.String(), tmpl.StartTime, tmpl.EndTime, tmpl.SlotDuration)
		if err != nil {
			return schedule.CreateResult{}, err
		}
		res.CreatedTemplates++

		slots := make([]model.Slot, 0, len(batch.Slots))
		for _, d := range batch.Slots {
			slots = append(slots, model.Slot{
				ID:         uuid.NewString(),
				TemplateID: tmpl.ID,
				VetUserID:  d.VetUserID,
				Date:       d.Date,
				StartTime:  d.StartTime,
			})
		}
		inserted, err := insertSlots(ctx, tx, slots)
		if err != nil {
			return schedule.CreateResult{}, err
		}
		res.CreatedSlots += inserted
	}

	if len(batches) > 0 {
		vetUserID := batches[0].Template.VetUserID
		payload, err := json.Marshal(map[string]any{
			"vet_user_id":       vetUserID,
			"created_templates": res.CreatedTemplates,
			"created_slots":     res.CreatedSlots,
		})
		if err != nil {
			return schedule.CreateResult{}, err
		}
		if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "vet_schedule",
			AggregateID:   vetUserID,
			EventType:     outbox.EventScheduleCreated,
			Payload:       payload,
		}); err != nil {
			return schedule.CreateResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return schedule.CreateResult{}, err
	}
	return res, nil
}

func (r *Repository) ListTemplates(ctx context.Context, vetUserID string, day model.Weekday) ([]model.ScheduleTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, vet_user_id::text, day_of_week, start_time, end_time, slot_duration, created_at
		FROM schedule_templates
		WHERE vet_user_id = $1
			AND ($2::text = '' OR day_of_week = $2)
		ORDER BY array_position(
			ARRAY['monday','tuesday','wednesday','thursday','friday','saturday','sunday']::text[],
			day_of_week)
	`, vetUserID, day.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.ScheduleTemplate
	for rows.Next() {
		var t model.ScheduleTemplate
		var dayName string
		if err := rows.Scan(&t.ID, &t.VetUserID, &dayName, &t.StartTime, &t.EndTime, &t.SlotDuration, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.DayOfWeek = model.Weekday(dayName)
		templates = append(templates, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return templates, nil
}

func (r *Repository) ListSlots(ctx context.Context, q schedule.SlotQuery) ([]model.Slot, error) {
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.template_id::text, s.vet_user_id::text, s.date, s.start_time, st.slot_duration, s.created_at
		FROM slots s
		JOIN schedule_templates st ON st.id = s.template_id
		WHERE s.vet_user_id = $1
			AND ($2::date IS NULL OR s.date = $2)
		ORDER BY s.date ASC, s.start_time ASC
		LIMIT $3 OFFSET $4
	`, q.VetUserID, q.Date, limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.Slot
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.VetUserID, &s.Date, &s.StartTime, &s.SlotDuration, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return slots, nil
}

func (r *Repository) ListSlotKeysInRange(ctx context.Context, vetUserID string, from, to time.Time) ([]schedule.SlotKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, start_time
		FROM slots
		WHERE vet_user_id = $1
			AND date BETWEEN $2 AND $3
	`, vetUserID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []schedule.SlotKey
	for rows.Next() {
		var k schedule.SlotKey
		if err := rows.Scan(&k.Date, &k.StartTime); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return keys, nil
}

func (r *Repository) InsertSlots(ctx context.Context, vetUserID string, from, to time.Time, slots []model.Slot) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := insertSlots(ctx, tx, slots)
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(map[string]any{
		"vet_user_id": vetUserID,
		"added_slots": inserted,
		"start_date":  from.Format("2006-01-02"),
		"end_date":    to.Format("2006-01-02"),
	})
	if err != nil {
		return 0, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "vet_schedule",
		AggregateID:   vetUserID,
		EventType:     outbox.EventSlotsAdded,
		Payload:       payload,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// insertSlots bulk-inserts via UNNEST so one round trip covers the whole
// batch; conflicting rows on the slot uniqueness key are skipped.
func insertSlots(ctx context.Context, tx pgx.Tx, slots []model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	ids := make([]string, len(slots))
	templateIDs := make([]string, len(slots))
	vetIDs := make([]string, len(slots))
	dates := make([]time.Time, len(slots))
	starts := make([]time.Time, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
		templateIDs[i] = s.TemplateID
		vetIDs[i] = s.VetUserID
		dates[i] = s.Date
		starts[i] = s.StartTime
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO slots (id, template_id, vet_user_id, date, start_time)
		SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::uuid[], $4::date[], $5::timestamp[])
		ON CONFLICT (vet_user_id, date, start_time) DO NOTHING
	`, ids, templateIDs, vetIDs, dates, starts)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) AggregateUtilization(ctx context.Context, month, year, minSlots int) ([]schedule.VetUtilization, error) {
	rows, err := r.pool.Query(ctx, `
		WITH monthly_data AS (
			SELECT s.vet_user_id,
				ARRAY_AGG(DISTINCT st.slot_duration ORDER BY st.slot_duration) AS slot_durations,
				COUNT(s.id)::INT AS total_slots,
				COUNT(DISTINCT s.date)::INT AS working_days,
				ROUND(SUM(st.slot_duration) / 60.0, 2)::FLOAT8 AS total_hours
			FROM slots s
			JOIN schedule_templates st ON st.id = s.template_id
			WHERE EXTRACT(MONTH FROM s.date) = $1
				AND EXTRACT(YEAR FROM s.date) = $2
			GROUP BY s.vet_user_id
			HAVING COUNT(s.id) > $3
		)
		SELECT md.vet_user_id::text,
			v.display_name,
			v.email,
			v.specialisation,
			md.total_slots,
			md.working_days,
			md.slot_durations,
			md.total_hours,
			ROUND(md.total_slots::NUMERIC / md.working_days, 2)::FLOAT8 AS avg_slots_per_day
		FROM monthly_data md
		JOIN vets v ON v.vet_user_id = md.vet_user_id AND v.is_deleted = FALSE
		ORDER BY md.total_hours DESC
	`, month, year, minSlots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []schedule.VetUtilization
	for rows.Next() {
		var u schedule.VetUtilization
		if err := rows.Scan(&u.VetUserID, &u.VetName, &u.Email, &u.Specialisation,
			&u.TotalSlots, &u.WorkingDays, &u.SlotDurations, &u.TotalHours, &u.AvgSlotsPerDay); err != nil {
			return nil, err
		}
		report = append(report, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return report, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
