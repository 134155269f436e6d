package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wibowo/kabarin/internal/model"
)

// NotificationStore persists fired occurrences for the offline read
// path. The live push is best-effort; these rows are the history a
// client catches up from.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationCols = `id, employee_id, reminder_id, title, message, tipe, scheduled_at, read_at, created_at`

func (s *NotificationStore) Create(employeeID, reminderID int64, title, message string, kind model.Kind, scheduledAt time.Time) (*model.Notification, error) {
	result, err := s.db.Exec(
		`INSERT INTO notifications (employee_id, reminder_id, title, message, tipe, scheduled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		employeeID, reminderID, title, message, string(kind), scheduledAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NotificationStore) GetByID(id int64) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListByEmployee returns an employee's notifications, newest first.
func (s *NotificationStore) ListByEmployee(employeeID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications
		 WHERE employee_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		employeeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) UnreadCount(employeeID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE employee_id = ? AND read_at IS NULL`,
		employeeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead stamps a notification as read. Scoped by employee so one
// owner cannot ack another's history.
func (s *NotificationStore) MarkRead(id, employeeID int64) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET read_at = ? WHERE id = ? AND employee_id = ? AND read_at IS NULL`,
		time.Now().UTC(), id, employeeID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(employeeID int64) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET read_at = ? WHERE employee_id = ? AND read_at IS NULL`,
		time.Now().UTC(), employeeID,
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var (
		n    model.Notification
		tipe string
		read sql.NullTime
	)
	err := scanner.Scan(&n.ID, &n.EmployeeID, &n.ReminderID, &n.Title, &n.Message, &tipe, &n.ScheduledAt, &read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Kind = model.Kind(tipe)
	if read.Valid {
		t := read.Time
		n.ReadAt = &t
	}
	return &n, nil
}
