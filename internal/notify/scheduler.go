package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wibowo/kabarin/internal/model"
	"github.com/wibowo/kabarin/internal/recurrence"
	"github.com/wibowo/kabarin/internal/store"
)

// ledgerRetention controls how far back fired occurrences are kept.
// Well past the one-year recurrence horizon, so pruning can never
// re-enable an occurrence.
const ledgerRetention = 400 * 24 * time.Hour

// Sink receives the rendered text of a fired reminder. Delivery
// failures are the sink's to retry; the scheduler only logs them.
type Sink interface {
	Send(ctx context.Context, number, text string) error
}

// Scheduler drives the minute tick: evaluate every active reminder,
// claim the occurrence, persist it, publish it, hand it to the sink.
type Scheduler struct {
	mu        sync.RWMutex
	reminders *store.ReminderStore
	ledger    *store.FireLedgerStore
	history   *store.NotificationStore
	employees *store.EmployeeStore
	bus       Bus
	sink      Sink
	loc       *time.Location
	interval  time.Duration
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScheduler(
	reminders *store.ReminderStore,
	ledger *store.FireLedgerStore,
	history *store.NotificationStore,
	employees *store.EmployeeStore,
	bus Bus,
	sink Sink,
	loc *time.Location,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Scheduler{
		reminders: reminders,
		ledger:    ledger,
		history:   history,
		employees: employees,
		bus:       bus,
		sink:      sink,
		loc:       loc,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins the tick loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Roughly daily ledger housekeeping.
		prune := time.NewTicker(24 * time.Hour)
		defer prune.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(ctx, now)
			case <-prune.C:
				if err := s.ledger.Prune(time.Now().Add(-ledgerRetention)); err != nil {
					s.logger.Error("prune fire ledger", "error", err)
				}
			}
		}
	}()

	s.logger.Info("scheduler started", "interval", s.interval, "timezone", s.loc.String())
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// tick runs one evaluation pass. Reminders are re-read from the store
// every pass so edits and deactivations take effect before the next
// due minute. Everything after a won claim is best effort: the claim
// is never retracted.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	now = now.In(s.loc)

	reminders, err := s.reminders.ListActive()
	if err != nil {
		s.logger.Error("list active reminders", "error", err)
		return
	}

	for _, rem := range reminders {
		fires, key := recurrence.Evaluate(rem.Schedule, now)
		if !fires {
			continue
		}

		claimed, err := s.ledger.TryClaim(rem.ID, key)
		if err != nil {
			s.logger.Error("claim occurrence", "reminder_id", rem.ID, "key", key, "error", err)
			continue
		}
		if !claimed {
			// Benign: a concurrent tick or a second instance won.
			s.logger.Debug("occurrence already claimed", "reminder_id", rem.ID, "key", key)
			continue
		}

		s.dispatch(ctx, rem, now)
	}
}

// dispatch persists, publishes, and forwards one claimed occurrence.
func (s *Scheduler) dispatch(ctx context.Context, rem model.Reminder, now time.Time) {
	scheduledAt := time.Date(now.Year(), now.Month(), now.Day(),
		rem.Schedule.At.Hour, rem.Schedule.At.Minute, 0, 0, s.loc)

	payload := Payload{
		ReminderID:  rem.ID,
		Title:       rem.Title,
		Message:     rem.Message,
		Kind:        rem.Schedule.Kind,
		ScheduledAt: scheduledAt,
	}

	if _, err := s.history.Create(rem.EmployeeID, rem.ID, rem.Title, rem.Message, rem.Schedule.Kind, scheduledAt); err != nil {
		// The durable record failed but the claim stands; live push
		// still goes out.
		s.logger.Error("persist notification", "reminder_id", rem.ID, "error", err)
	}

	s.bus.Publish(rem.EmployeeID, payload)
	s.logger.Info("reminder fired", "reminder_id", rem.ID, "employee_id", rem.EmployeeID, "tipe", rem.Schedule.Kind)

	if s.sink == nil {
		return
	}
	employee, err := s.employees.GetByID(rem.EmployeeID)
	if err != nil || employee == nil {
		s.logger.Error("lookup employee for delivery", "employee_id", rem.EmployeeID, "error", err)
		return
	}
	if !employee.Active || employee.WhatsAppNumber == "" {
		return
	}
	if err := s.sink.Send(ctx, employee.WhatsAppNumber, RenderText(rem)); err != nil {
		s.logger.Warn("whatsapp delivery failed", "reminder_id", rem.ID, "error", err)
	}
}

// RenderText formats the message handed to the WhatsApp gateway.
func RenderText(rem model.Reminder) string {
	return fmt.Sprintf("*%s*\n\n%s", rem.Title, rem.Message)
}
