package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wibowo/kabarin/internal/auth"
	"github.com/wibowo/kabarin/internal/model"
	"github.com/wibowo/kabarin/internal/store"
	"github.com/wibowo/kabarin/internal/websocket"
)

type ReminderHandler struct {
	store         *store.ReminderStore
	employeeStore *store.EmployeeStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewReminderHandler(s *store.ReminderStore, es *store.EmployeeStore, hub *websocket.Hub, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{store: s, employeeStore: es, hub: hub, logger: logger}
}

// reminderRequest is the flat wire shape shared by Create and Update.
type reminderRequest struct {
	EmployeeID int64    `json:"pegawai_id"`
	Title      string   `json:"judul_reminder"`
	Message    string   `json:"pesan_reminder"`
	Kind       string   `json:"tipe_reminder"`
	At         string   `json:"waktu_reminder"`
	Days       []string `json:"hari_dalam_minggu"`
	Date       string   `json:"tanggal_spesifik"`
	Active     *bool    `json:"is_active"`
}

// scheduleFromRequest validates the recurrence fields and builds the
// Schedule. Returns a client-facing error message on failure.
func scheduleFromRequest(req reminderRequest) (model.Schedule, string) {
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		return model.Schedule{}, err.Error()
	}

	at, err := model.ParseTimeOfDay(req.At)
	if err != nil {
		return model.Schedule{}, "waktu_reminder must be HH:MM"
	}

	days, err := model.ParseDays(req.Days)
	if err != nil {
		return model.Schedule{}, err.Error()
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(model.DateFormat, req.Date)
		if err != nil {
			return model.Schedule{}, "tanggal_spesifik must be YYYY-MM-DD"
		}
	}

	sched, err := model.NewSchedule(kind, at, days, date)
	if err != nil {
		return model.Schedule{}, err.Error()
	}
	return sched, ""
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		reminders []model.Reminder
		err       error
	)
	if auth.IsAdmin(r.Context()) {
		reminders, err = h.store.List()
	} else {
		reminders, err = h.store.ListByEmployee(auth.EmployeeID(r.Context()))
	}
	if err != nil {
		h.logger.Error("list reminders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reminder, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminder")
		return
	}
	if reminder == nil || !h.canAccess(r, reminder) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "judul_reminder is required")
		return
	}

	if req.EmployeeID == 0 {
		req.EmployeeID = auth.EmployeeID(r.Context())
	}
	if req.EmployeeID == 0 {
		writeError(w, http.StatusBadRequest, "pegawai_id is required")
		return
	}
	if !auth.IsAdmin(r.Context()) && req.EmployeeID != auth.EmployeeID(r.Context()) {
		writeError(w, http.StatusForbidden, "cannot create a reminder for another pegawai")
		return
	}

	employee, err := h.employeeStore.GetByID(req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pegawai")
		return
	}
	if employee == nil {
		writeError(w, http.StatusBadRequest, "pegawai not found")
		return
	}

	sched, errMsg := scheduleFromRequest(req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	reminder, err := h.store.Create(req.EmployeeID, req.Title, req.Message, sched, active)
	if err != nil {
		h.logger.Error("create reminder", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reminder")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "reminder", Action: "created", ID: reminder.ID})
	writeJSON(w, http.StatusCreated, reminder)
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminder")
		return
	}
	if existing == nil || !h.canAccess(r, existing) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "judul_reminder is required")
		return
	}

	sched, errMsg := scheduleFromRequest(req)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	reminder, err := h.store.Update(id, req.Title, req.Message, sched, active)
	if err != nil {
		h.logger.Error("update reminder", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "reminder", Action: "updated", ID: id})
	writeJSON(w, http.StatusOK, reminder)
}

func (h *ReminderHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminder")
		return
	}
	if existing == nil || !h.canAccess(r, existing) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}

	var req struct {
		Active bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.store.SetActive(id, req.Active); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "reminder", Action: "updated", ID: id})
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": req.Active})
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reminder")
		return
	}
	if existing == nil || !h.canAccess(r, existing) {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "reminder", Action: "deleted", ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// canAccess hides other employees' reminders from non-admin users.
func (h *ReminderHandler) canAccess(r *http.Request, reminder *model.Reminder) bool {
	if auth.IsAdmin(r.Context()) {
		return true
	}
	return reminder.EmployeeID == auth.EmployeeID(r.Context())
}
