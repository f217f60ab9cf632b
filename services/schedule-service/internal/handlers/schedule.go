package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pawcare/vetsched/services/schedule-service/internal/schedule"
)

// ScheduleHandler is the transport boundary: it decodes requests, delegates to
// the orchestrator and maps failure kinds to HTTP status codes. No business
// rule lives here.
type ScheduleHandler struct {
	svc    *schedule.Service
	logger *slog.Logger
}

func NewScheduleHandler(svc *schedule.Service, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

func (h *ScheduleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/vets/{vetUserId}/schedule", h.CreateSchedule)
	mux.HandleFunc("POST /api/v1/vets/{vetUserId}/schedule/slots", h.AddSlots)
	mux.HandleFunc("GET /api/v1/vets/{vetUserId}/schedule", h.GetSchedule)
	mux.HandleFunc("GET /api/v1/vets/{vetUserId}/schedule/slots", h.ListSlots)
	mux.HandleFunc("GET /api/v1/vets/schedule/analytics", h.ClinicStatistics)
}

type dayTemplateRequest struct {
	DayOfWeek    string `json:"day_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SlotDuration int    `json:"slot_duration"`
}

type createScheduleRequest struct {
	ScheduleData []dayTemplateRequest `json:"scheduleData"`
	StartDate    string               `json:"startDate"`
	DurationDays int                  `json:"durationDays"`
}

type createScheduleResponse struct {
	CreatedTemplates int `json:"createdTemplates"`
	CreatedSlots     int `json:"createdSlots"`
}

func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	vetUserID := strings.TrimSpace(r.PathValue("vetUserId"))
	if vetUserID == "" {
		http.Error(w, "vet id required", http.StatusBadRequest)
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	days := make([]schedule.DayTemplate, 0, len(req.ScheduleData))
	for _, d := range req.ScheduleData {
		days = append(days, schedule.DayTemplate{
			DayOfWeek:    d.DayOfWeek,
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
			SlotDuration: d.SlotDuration,
		})
	}

	res, err := h.svc.CreateSchedule(r.Context(), schedule.CreateScheduleInput{
		VetUserID:    vetUserID,
		Days:         days,
		StartDate:    req.StartDate,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createScheduleResponse{
		CreatedTemplates: res.CreatedTemplates,
		CreatedSlots:     res.CreatedSlots,
	})
}

type addSlotsRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type addSlotsResponse struct {
	AddedSlots int    `json:"addedSlots"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

func (h *ScheduleHandler) AddSlots(w http.ResponseWriter, r *http.Request) {
	vetUserID := strings.TrimSpace(r.PathValue("vetUserId"))
	if vetUserID == "" {
		http.Error(w, "vet id required", http.StatusBadRequest)
		return
	}

	var req addSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.AddSlots(r.Context(), vetUserID, strings.TrimSpace(req.StartDate), strings.TrimSpace(req.EndDate))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, addSlotsResponse{
		AddedSlots: res.AddedSlots,
		StartDate:  res.StartDate,
		EndDate:    res.EndDate,
	})
}

type templateItem struct {
	TemplateID   string `json:"template_id"`
	VetUserID    string `json:"vet_user_id"`
	DayOfWeek    string `json:"day_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SlotDuration int    `json:"slot_duration"`
}

func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	vetUserID := strings.TrimSpace(r.PathValue("vetUserId"))
	if vetUserID == "" {
		http.Error(w, "vet id required", http.StatusBadRequest)
		return
	}

	views, err := h.svc.GetVetSchedule(r.Context(), vetUserID, strings.TrimSpace(r.URL.Query().Get("dayChoice")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]templateItem, 0, len(views))
	for _, v := range views {
		items = append(items, templateItem{
			TemplateID:   v.TemplateID,
			VetUserID:    v.VetUserID,
			DayOfWeek:    v.DayOfWeek,
			StartTime:    v.StartTime,
			EndTime:      v.EndTime,
			SlotDuration: v.SlotDuration,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": items})
}

type slotItem struct {
	SlotID     string `json:"slot_id"`
	TemplateID string `json:"template_id"`
	VetUserID  string `json:"vet_user_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type slotListResponse struct {
	Slots  []slotItem `json:"slots"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func (h *ScheduleHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	vetUserID := strings.TrimSpace(r.PathValue("vetUserId"))
	if vetUserID == "" {
		http.Error(w, "vet id required", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	limit, err := queryInt(query.Get("limit"), 0)
	if err != nil {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	offset, err := queryInt(query.Get("offset"), 0)
	if err != nil {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}

	res, err := h.svc.ListSlots(r.Context(), vetUserID, strings.TrimSpace(query.Get("dateChoice")), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]slotItem, 0, len(res.Slots))
	for _, s := range res.Slots {
		items = append(items, slotItem{
			SlotID:     s.SlotID,
			TemplateID: s.TemplateID,
			VetUserID:  s.VetUserID,
			Date:       s.Date,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
		})
	}
	writeJSON(w, http.StatusOK, slotListResponse{Slots: items, Limit: res.Limit, Offset: res.Offset})
}

type utilizationItem struct {
	VetUserID      string  `json:"vet_user_id"`
	VetName        string  `json:"vet_name"`
	Email          string  `json:"email"`
	Specialisation string  `json:"specialisation"`
	TotalSlots     int     `json:"total_slots"`
	WorkingDays    int     `json:"working_days"`
	SlotDurations  []int   `json:"slot_durations"`
	TotalHours     float64 `json:"total_hours"`
	AvgSlotsPerDay float64 `json:"avg_slots_per_day"`
}

func (h *ScheduleHandler) ClinicStatistics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month, err := queryInt(query.Get("month"), 12)
	if err != nil {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}
	year, err := queryInt(query.Get("year"), 2025)
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	minSlots, err := queryInt(query.Get("minSlotsCount"), 50)
	if err != nil {
		http.Error(w, "invalid minSlotsCount", http.StatusBadRequest)
		return
	}

	rows, err := h.svc.ClinicStatistics(r.Context(), month, year, minSlots)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]utilizationItem, 0, len(rows))
	for _, u := range rows {
		items = append(items, utilizationItem{
			VetUserID:      u.VetUserID,
			VetName:        u.VetName,
			Email:          u.Email,
			Specialisation: u.Specialisation,
			TotalSlots:     u.TotalSlots,
			WorkingDays:    u.WorkingDays,
			SlotDurations:  u.SlotDurations,
			TotalHours:     u.TotalHours,
			AvgSlotsPerDay: u.AvgSlotsPerDay,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reportData": items})
}

// writeError owns the kind-to-status mapping; internal failures stay generic
// so persistence detail never reaches clients.
func (h *ScheduleHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch schedule.KindOf(err) {
	case schedule.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case schedule.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case schedule.KindConflict:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("schedule operation failed", "err", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func queryInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
