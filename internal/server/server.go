package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wibowo/kabarin/internal/handler"
	"github.com/wibowo/kabarin/internal/middleware"
	"github.com/wibowo/kabarin/internal/notify"
	"github.com/wibowo/kabarin/internal/store"
	"github.com/wibowo/kabarin/internal/wagateway"
	ws "github.com/wibowo/kabarin/internal/websocket"
)

type Config struct {
	Location     *time.Location
	TickInterval time.Duration
	Gateway      wagateway.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	bus           *notify.MemoryBus
	scheduler     *notify.Scheduler
	reminderH     *handler.ReminderHandler
	employeeH     *handler.EmployeeHandler
	userH         *handler.UserHandler
	notificationH *handler.NotificationHandler
	authH         *handler.AuthHandler
	streamH       *handler.StreamHandler
	wsH           *ws.Handler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	bus := notify.NewMemoryBus(logger.With("component", "bus"))

	reminderStore := store.NewReminderStore(db)
	employeeStore := store.NewEmployeeStore(db)
	notificationStore := store.NewNotificationStore(db)
	ledgerStore := store.NewFireLedgerStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	var sink notify.Sink
	gateway := wagateway.NewClient(cfg.Gateway)
	if gateway.Configured() {
		sink = gateway
	} else {
		logger.Warn("whatsapp gateway not configured, delivery disabled")
	}

	scheduler := notify.NewScheduler(
		reminderStore,
		ledgerStore,
		notificationStore,
		employeeStore,
		bus,
		sink,
		cfg.Location,
		cfg.TickInterval,
		logger.With("component", "scheduler"),
	)

	return &Server{
		db:            db,
		hub:           hub,
		bus:           bus,
		scheduler:     scheduler,
		reminderH:     handler.NewReminderHandler(reminderStore, employeeStore, hub, logger.With("component", "reminder")),
		employeeH:     handler.NewEmployeeHandler(employeeStore, hub, logger.With("component", "pegawai")),
		userH:         handler.NewUserHandler(userStore, employeeStore, logger.With("component", "user")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		streamH:       handler.NewStreamHandler(bus, logger.With("component", "stream")),
		wsH:           ws.NewHandler(hub, logger.With("component", "websocket")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		logger:        logger,
	}
}

// Scheduler returns the reminder scheduler so main can run it.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/login", s.authH.Login)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Reminder API routes
	mux.HandleFunc("GET /api/reminders", s.reminderH.List)
	mux.HandleFunc("POST /api/reminders", s.reminderH.Create)
	mux.HandleFunc("GET /api/reminders/{id}", s.reminderH.Get)
	mux.HandleFunc("PUT /api/reminders/{id}", s.reminderH.Update)
	mux.HandleFunc("PUT /api/reminders/{id}/active", s.reminderH.SetActive)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.reminderH.Delete)

	// Pegawai API routes; mutations are admin-only
	mux.HandleFunc("GET /api/pegawai", s.employeeH.List)
	mux.Handle("POST /api/pegawai", middleware.RequireAdmin(http.HandlerFunc(s.employeeH.Create)))
	mux.Handle("PUT /api/pegawai/{id}", middleware.RequireAdmin(http.HandlerFunc(s.employeeH.Update)))
	mux.Handle("DELETE /api/pegawai/{id}", middleware.RequireAdmin(http.HandlerFunc(s.employeeH.Delete)))

	// Account provisioning, admin-only
	mux.Handle("GET /api/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.List)))
	mux.Handle("POST /api/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.Create)))

	// Notification history + live stream
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("GET /api/notifications/unread-count", s.notificationH.UnreadCount)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("POST /api/notifications/read-all", s.notificationH.MarkAllRead)
	mux.Handle("GET /api/notifications/stream", s.streamH)

	// Dashboard sync websocket
	mux.Handle("GET /ws", s.wsH)
}
