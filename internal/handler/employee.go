package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wibowo/kabarin/internal/model"
	"github.com/wibowo/kabarin/internal/store"
	"github.com/wibowo/kabarin/internal/websocket"
)

type EmployeeHandler struct {
	store  *store.EmployeeStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewEmployeeHandler(s *store.EmployeeStore, hub *websocket.Hub, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{store: s, hub: hub, logger: logger}
}

func normalizeWhatsAppNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	// Local Indonesian numbers come in as 08xx; the gateway wants 628xx.
	if strings.HasPrefix(s, "0") {
		s = "62" + s[1:]
	}
	s = strings.TrimPrefix(s, "+")
	return s
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.List()
	if err != nil {
		h.logger.Error("list employees", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pegawai")
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"nama"`
		WhatsAppNumber string `json:"nomor_whatsapp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "nama is required")
		return
	}

	employee, err := h.store.Create(req.Name, normalizeWhatsAppNumber(req.WhatsAppNumber))
	if err != nil {
		h.logger.Error("create employee", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create pegawai")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "pegawai", Action: "created", ID: employee.ID})
	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get pegawai")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "pegawai not found")
		return
	}

	var req struct {
		Name           string `json:"nama"`
		WhatsAppNumber string `json:"nomor_whatsapp"`
		Active         *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = existing.Name
	}
	number := existing.WhatsAppNumber
	if req.WhatsAppNumber != "" {
		number = normalizeWhatsAppNumber(req.WhatsAppNumber)
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	employee, err := h.store.Update(id, req.Name, number, active)
	if err != nil {
		h.logger.Error("update employee", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update pegawai")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "pegawai", Action: "updated", ID: id})
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get pegawai")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "pegawai not found")
		return
	}

	if err := h.store.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete pegawai")
		return
	}

	h.hub.Broadcast(websocket.SyncEvent{Resource: "pegawai", Action: "deleted", ID: id})
	w.WriteHeader(http.StatusNoContent)
}
