package streamclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func sseHandler(fn func(w http.ResponseWriter, r *http.Request, flusher http.Flusher)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fn(w, r, flusher)
	}
}

func TestClientReceivesEvents(t *testing.T) {
	srv := httptest.NewServer(sseHandler(func(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
		fmt.Fprint(w, "retry: 5000\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: reminder\ndata: {\"reminderId\":3,\"title\":\"Absen\",\"message\":\"Jangan lupa absen\",\"tipe\":\"Harian\"}\n\n")
		flusher.Flush()
		// Hold the stream open until the client goes away.
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL}, slog.Default())
	c.Start(context.Background())
	defer c.Stop()

	select {
	case p := <-c.Events():
		if p.ReminderID != 3 || p.Title != "Absen" {
			t.Fatalf("unexpected payload: %+v", p)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestClientReconnectsAfterDisconnect(t *testing.T) {
	var connects atomic.Int32
	srv := httptest.NewServer(sseHandler(func(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
		n := connects.Add(1)
		fmt.Fprintf(w, "event: reminder\ndata: {\"reminderId\":%d,\"title\":\"T\",\"message\":\"M\",\"tipe\":\"Harian\"}\n\n", n)
		flusher.Flush()
		// Returning closes the stream, forcing a reconnect.
	}))
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL}, slog.Default())
	c.Start(context.Background())
	defer c.Stop()

	select {
	case p := <-c.Events():
		if p.ReminderID != 1 {
			t.Fatalf("first payload ReminderID = %d, want 1", p.ReminderID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	// The second event only arrives on a fresh connection after the
	// fixed reconnect delay.
	select {
	case p := <-c.Events():
		if p.ReminderID != 2 {
			t.Fatalf("second payload ReminderID = %d, want 2", p.ReminderID)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}

	if got := connects.Load(); got < 2 {
		t.Fatalf("connects = %d, want at least 2", got)
	}
}

func TestClientStopClosesEvents(t *testing.T) {
	srv := httptest.NewServer(sseHandler(func(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
		fmt.Fprint(w, ": keepalive\n\n")
		flusher.Flush()
	}))
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL}, slog.Default())
	c.Start(context.Background())
	c.Stop()

	select {
	case _, ok := <-c.Events():
		if ok {
			t.Fatal("expected closed events channel")
		}
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after Stop")
	}
}
