package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c := &Client{hub: hub, send: make(chan []byte, sendBuffer)}
	hub.Register(c)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount = %d, want 1", got)
	}

	hub.Unregister(c)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("ClientCount = %d, want 0", got)
	}

	// A second unregister must not close the channel twice.
	hub.Unregister(c)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(testLogger())

	a := &Client{hub: hub, send: make(chan []byte, sendBuffer)}
	b := &Client{hub: hub, send: make(chan []byte, sendBuffer)}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(SyncEvent{Resource: "reminder", Action: "created", ID: 7})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			var e SyncEvent
			if err := json.Unmarshal(msg, &e); err != nil {
				t.Fatalf("unmarshal broadcast: %v", err)
			}
			if e.Resource != "reminder" || e.Action != "created" || e.ID != 7 {
				t.Fatalf("unexpected event: %+v", e)
			}
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubBroadcastSkipsSlowClient(t *testing.T) {
	hub := NewHub(testLogger())

	slow := &Client{hub: hub, send: make(chan []byte)} // unbuffered, never drained
	fast := &Client{hub: hub, send: make(chan []byte, sendBuffer)}
	hub.Register(slow)
	hub.Register(fast)

	hub.Broadcast(SyncEvent{Resource: "pegawai", Action: "updated", ID: 3})

	select {
	case <-fast.send:
	default:
		t.Fatal("fast client should have received the event")
	}
	select {
	case <-slow.send:
		t.Fatal("slow client should have been skipped")
	default:
	}
}
