package wagateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Config holds WhatsApp gateway settings from environment variables.
type Config struct {
	BaseURL string
	Token   string
}

// Client posts rendered reminder texts to an external WhatsApp gateway.
// The gateway owns delivery to the handset; this client only retries
// transient transport failures before reporting a soft failure.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a gateway URL is set. An unconfigured
// client is a valid deployment: reminders then only reach the
// dashboard stream and the notification history.
func (c *Client) Configured() bool { return c.cfg.BaseURL != "" }

type sendRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

// Send delivers one message. Network errors and 5xx responses are
// retried twice with a small pause; 4xx responses are terminal.
func (c *Client) Send(ctx context.Context, number, text string) error {
	if !c.Configured() {
		return fmt.Errorf("whatsapp gateway not configured")
	}

	body, err := json.Marshal(sendRequest{Number: number, Message: text})
	if err != nil {
		return fmt.Errorf("encode gateway request: %w", err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewConstant(2*time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/send-message", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build gateway request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("gateway request: %w", err))
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("gateway rejected message: %d", resp.StatusCode)
		}
	})
}
