// Package streamclient consumes the live notification stream over SSE.
// It backs headless consumers (desk displays, shell watchers) that want
// fired reminders without speaking the dashboard's websocket.
package streamclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/wibowo/kabarin/internal/middleware"
	"github.com/wibowo/kabarin/internal/notify"
)

// reconnectDelay is the fixed pause between connection attempts. The
// server advertises the same value in its retry hint.
const reconnectDelay = 5 * time.Second

const eventBuffer = 16

type Config struct {
	// URL is the full stream endpoint, e.g. http://host:8080/api/notifications/stream.
	URL string

	// SessionToken authenticates the stream as a logged-in user.
	SessionToken string

	// HTTPClient overrides the default client. Streaming needs a
	// client without a global timeout.
	HTTPClient *http.Client
}

// Client maintains a long-lived subscription to the notification
// stream, reconnecting after every disconnect until Stop or context
// cancellation.
type Client struct {
	cfg    Config
	http   *http.Client
	events chan notify.Payload
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, logger *slog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		cfg:    cfg,
		http:   hc,
		events: make(chan notify.Payload, eventBuffer),
		logger: logger,
	}
}

// Events returns the channel fired reminders arrive on. The channel is
// closed once the client has fully stopped.
func (c *Client) Events() <-chan notify.Payload {
	return c.events
}

// Start begins consuming in the background. Stop (or cancelling ctx)
// ends it.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		defer close(c.events)
		c.run(ctx)
	}()
}

// Stop disconnects and waits for the event channel to close.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}

func (c *Client) run(ctx context.Context) {
	backoff := retry.NewConstant(reconnectDelay)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.stream(ctx); err != nil {
			c.logger.Warn("stream disconnected, reconnecting", "error", err, "delay", reconnectDelay)
			return retry.RetryableError(err)
		}
		// The server closed the stream cleanly; reconnect anyway.
		return retry.RetryableError(fmt.Errorf("stream ended"))
	})
	if err != nil && ctx.Err() == nil {
		c.logger.Error("stream client stopped", "error", err)
	}
}

// stream runs one connection to completion.
func (c *Client) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.cfg.SessionToken != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: c.cfg.SessionToken})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	c.logger.Info("stream connected", "url", c.cfg.URL)

	var event, data string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.dispatch(ctx, event, data)
			event, data = "", ""
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) dispatch(ctx context.Context, event, data string) {
	switch event {
	case "reminder":
		var p notify.Payload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			c.logger.Warn("bad reminder payload", "error", err)
			return
		}
		select {
		case c.events <- p:
		case <-ctx.Done():
		}
	case "notify-error":
		c.logger.Warn("server reported stream error", "data", data)
	}
}
