package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wibowo/kabarin/internal/recurrence"
)

// recurrenceHorizon is the longest span after which an occurrence key
// can recur (Bulanan anchors repeat within a year). Ledger entries
// younger than this must survive pruning or an occurrence could fire
// twice.
const recurrenceHorizon = 366 * 24 * time.Hour

// FireLedgerStore is the append-only dedup ledger of fired occurrences.
type FireLedgerStore struct {
	db *sql.DB
}

func NewFireLedgerStore(db *sql.DB) *FireLedgerStore {
	return &FireLedgerStore{db: db}
}

// TryClaim atomically records (reminderID, key) and reports whether the
// caller won the claim. Exactly one of any number of concurrent callers
// for the same pair gets true; everyone else, forever after, gets
// false. Dispatch must only proceed on true.
func (s *FireLedgerStore) TryClaim(reminderID int64, key recurrence.OccurrenceKey) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO fire_ledger (reminder_id, occurrence_key, fired_at)
		 VALUES (?, ?, ?)`,
		reminderID, string(key), time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("claim occurrence: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim occurrence rows: %w", err)
	}
	return n == 1, nil
}

// WasFired reports whether an occurrence has already been claimed.
func (s *FireLedgerStore) WasFired(reminderID int64, key recurrence.OccurrenceKey) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM fire_ledger WHERE reminder_id = ? AND occurrence_key = ?`,
		reminderID, string(key),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check occurrence: %w", err)
	}
	return count > 0, nil
}

// Prune deletes ledger entries fired before the cutoff. Cutoffs inside
// the recurrence horizon are pushed back to it, so pruning can never
// enable a re-fire of an occurrence that is still reachable.
func (s *FireLedgerStore) Prune(before time.Time) error {
	if floor := time.Now().Add(-recurrenceHorizon); before.After(floor) {
		before = floor
	}
	_, err := s.db.Exec(`DELETE FROM fire_ledger WHERE fired_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("prune fire ledger: %w", err)
	}
	return nil
}
