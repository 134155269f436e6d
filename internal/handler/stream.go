package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wibowo/kabarin/internal/auth"
	"github.com/wibowo/kabarin/internal/notify"
)

const (
	keepaliveInterval = 15 * time.Second

	// reconnectHint is the retry delay pushed to EventSource clients,
	// matching the stream client's own backoff.
	reconnectHint = 5000
)

// StreamHandler serves the per-employee live notification stream over
// Server-Sent Events. Each connection subscribes to the bus under the
// authenticated user's pegawai id and relays payloads until the client
// goes away.
type StreamHandler struct {
	bus    notify.Bus
	logger *slog.Logger
}

func NewStreamHandler(bus notify.Bus, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{bus: bus, logger: logger}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	employeeID := auth.EmployeeID(r.Context())
	if employeeID == 0 {
		writeError(w, http.StatusForbidden, "account is not linked to a pegawai")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub, unsubscribe := h.bus.Subscribe(employeeID)
	defer unsubscribe()

	logger := h.logger.With("conn_id", sub.ID, "pegawai_id", employeeID)
	logger.Info("stream connected")

	fmt.Fprintf(w, "retry: %d\n\n", reconnectHint)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				logger.Info("stream closed by bus")
				return
			}
			if err := writeEvent(w, payload); err != nil {
				logger.Debug("stream write failed", "error", err)
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			// Comment lines keep proxies from timing out idle streams.
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			logger.Info("stream disconnected")
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, payload notify.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		// The subscriber still learns something went wrong even when
		// the payload itself cannot be serialized.
		msg, _ := json.Marshal(map[string]string{"message": err.Error()})
		_, werr := fmt.Fprintf(w, "event: notify-error\ndata: %s\n\n", msg)
		return werr
	}
	_, err = fmt.Fprintf(w, "event: reminder\ndata: %s\n\n", data)
	return err
}
