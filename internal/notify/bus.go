package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wibowo/kabarin/internal/model"
)

// subscriberBuffer is the per-connection payload buffer. Live delivery
// is lossy for slow consumers; the notifications table is the durable
// history.
const subscriberBuffer = 8

// Payload is one fired reminder occurrence as pushed to live clients.
type Payload struct {
	ReminderID  int64      `json:"reminderId"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Kind        model.Kind `json:"tipe"`
	ScheduledAt time.Time  `json:"scheduled_at"`
}

// Subscription is one live listener registration: an ephemeral
// connection identity under one owner, destroyed on unsubscribe and
// never persisted.
type Subscription struct {
	ID        string
	OwnerID   int64
	CreatedAt time.Time
	C         <-chan Payload
}

// Bus fans fired occurrences out to the live subscribers of one owner.
// The in-memory implementation below is the default; a distributed one
// can replace it without touching callers.
type Bus interface {
	// Publish delivers p to every channel currently subscribed under
	// ownerID. It never blocks on a slow subscriber: a full buffer
	// drops the oldest undelivered payload in favor of p.
	Publish(ownerID int64, p Payload)

	// Subscribe registers a fresh subscription under ownerID. The
	// returned unsubscribe is idempotent, closes the channel, and is
	// safe to call concurrently with Publish.
	Subscribe(ownerID int64) (Subscription, func())
}

// MemoryBus is the process-local Bus.
type MemoryBus struct {
	mu      sync.RWMutex
	subs    map[int64]map[string]chan Payload
	dropped atomic.Uint64
	logger  *slog.Logger
}

func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		subs:   make(map[int64]map[string]chan Payload),
		logger: logger,
	}
}

func (b *MemoryBus) Subscribe(ownerID int64) (Subscription, func()) {
	ch := make(chan Payload, subscriberBuffer)
	sub := Subscription{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		C:         ch,
	}

	b.mu.Lock()
	owner := b.subs[ownerID]
	if owner == nil {
		owner = make(map[string]chan Payload)
		b.subs[ownerID] = owner
	}
	owner[sub.ID] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if owner := b.subs[ownerID]; owner != nil {
				delete(owner, sub.ID)
				if len(owner) == 0 {
					delete(b.subs, ownerID)
				}
			}
			// Safe: sends only happen under the read lock, which is
			// excluded while we hold the write lock.
			close(ch)
			b.mu.Unlock()
		})
	}
	return sub, unsubscribe
}

func (b *MemoryBus) Publish(ownerID int64, p Payload) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[ownerID] {
		select {
		case ch <- p:
			continue
		default:
		}

		// Buffer full: evict the oldest payload, then offer p again.
		// The second send can still miss if the consumer drained the
		// buffer in between, in which case p is the drop.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
		b.dropped.Add(1)
		if b.logger != nil {
			b.logger.Warn("subscriber buffer overflow, dropped oldest payload",
				"owner_id", ownerID, "reminder_id", p.ReminderID)
		}
	}
}

// SubscriberCount returns the number of live channels for an owner.
func (b *MemoryBus) SubscriberCount(ownerID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ownerID])
}

// Dropped returns the total payloads discarded to overflow.
func (b *MemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}
