package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/wibowo/kabarin/internal/model"
	"github.com/wibowo/kabarin/internal/store"
)

const minPasswordLength = 8

// UserHandler provisions dashboard accounts. Routes are admin-only;
// the very first admin comes from the startup seed instead.
type UserHandler struct {
	store         *store.UserStore
	employeeStore *store.EmployeeStore
	logger        *slog.Logger
}

func NewUserHandler(s *store.UserStore, es *store.EmployeeStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: s, employeeStore: es, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Name       string `json:"name"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		EmployeeID *int64 `json:"pegawai_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	switch req.Role {
	case "":
		req.Role = "pegawai"
	case "admin", "pegawai":
	default:
		writeError(w, http.StatusBadRequest, "role must be admin or pegawai")
		return
	}

	if req.EmployeeID != nil {
		employee, err := h.employeeStore.GetByID(*req.EmployeeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check pegawai")
			return
		}
		if employee == nil {
			writeError(w, http.StatusBadRequest, "pegawai not found")
			return
		}
	}

	existing, err := h.store.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check email")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a user with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.store.Create(req.Email, req.Name, string(hash), req.Role, req.EmployeeID)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}
