package wagateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSendSuccess(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send-message" {
			t.Errorf("path = %s, want /send-message", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sekret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "sekret"})
	if err := c.Send(context.Background(), "+628111", "*Standup*\n\nJangan lupa"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Number != "+628111" {
		t.Errorf("number = %q, want +628111", got.Number)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.Send(context.Background(), "+628111", "hi"); err != nil {
		t.Fatalf("send should succeed after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestSendClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.Send(context.Background(), "not-a-number", "hi"); err == nil {
		t.Fatal("expected error for 4xx response")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient(Config{})
	if c.Configured() {
		t.Fatal("empty config reported as configured")
	}
	if err := c.Send(context.Background(), "+628111", "hi"); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}
