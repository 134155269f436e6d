package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wibowo/kabarin/internal/database"
	"github.com/wibowo/kabarin/internal/logging"
	"github.com/wibowo/kabarin/internal/server"
	"github.com/wibowo/kabarin/internal/store"
	"github.com/wibowo/kabarin/internal/wagateway"
)

const defaultTimezone = "Asia/Jakarta"

// tickIntervalFromEnv parses KABARIN_TICK_INTERVAL. Empty means the
// 60s default; anything unparseable or non-positive is a startup
// error, never silently corrected.
func tickIntervalFromEnv(v string) (time.Duration, error) {
	if v == "" {
		return 60 * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q is not a positive duration", v)
	}
	return d, nil
}

// seedAdmin creates the first admin account on an empty users table
// from KABARIN_ADMIN_EMAIL / KABARIN_ADMIN_PASSWORD. Without it a
// fresh database has no account that can log in.
func seedAdmin(users *store.UserStore, logger *slog.Logger) {
	email := os.Getenv("KABARIN_ADMIN_EMAIL")
	password := os.Getenv("KABARIN_ADMIN_PASSWORD")
	if email == "" || password == "" {
		n, err := users.Count()
		if err == nil && n == 0 {
			logger.Warn("users table is empty and KABARIN_ADMIN_EMAIL/KABARIN_ADMIN_PASSWORD are not set; nobody can log in")
		}
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	created, err := users.SeedAdmin(email, "Admin", string(hash))
	if err != nil {
		log.Fatalf("seed admin user: %v", err)
	}
	if created {
		logger.Info("seeded initial admin user", "email", email)
	}
}

func main() {
	logger := logging.Setup(os.Getenv("KABARIN_LOG_LEVEL"))

	port := os.Getenv("KABARIN_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("KABARIN_DB_PATH")
	if dbPath == "" {
		dbPath = "kabarin.db"
	}

	tz := os.Getenv("KABARIN_TIMEZONE")
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid KABARIN_TIMEZONE %q: %v", tz, err)
	}

	tickInterval, err := tickIntervalFromEnv(os.Getenv("KABARIN_TICK_INTERVAL"))
	if err != nil {
		log.Fatalf("invalid KABARIN_TICK_INTERVAL: %v", err)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	seedAdmin(store.NewUserStore(db), logger)

	cfg := server.Config{
		Location:     loc,
		TickInterval: tickInterval,
		Gateway: wagateway.Config{
			BaseURL: os.Getenv("KABARIN_WA_GATEWAY_URL"),
			Token:   os.Getenv("KABARIN_WA_GATEWAY_TOKEN"),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	// Expired sessions pile up otherwise.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:        ":" + port,
		Handler:     srv.Router(),
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: the notification stream holds connections
		// open indefinitely.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		fmt.Printf("Kabarin running at http://localhost:%s (timezone %s)\n", port, loc)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
