package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wibowo/kabarin/internal/model"
)

type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

const reminderCols = `id, employee_id, title, message, tipe, waktu, days, specific_date, is_active, created_at, updated_at`

func (s *ReminderStore) Create(employeeID int64, title, message string, sched model.Schedule, active bool) (*model.Reminder, error) {
	waktu, days, date := scheduleColumns(sched)
	result, err := s.db.Exec(
		`INSERT INTO reminders (employee_id, title, message, tipe, waktu, days, specific_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		employeeID, title, message, string(sched.Kind), waktu, days, date, boolInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReminderStore) GetByID(id int64) (*model.Reminder, error) {
	row := s.db.QueryRow(`SELECT `+reminderCols+` FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *ReminderStore) List() ([]model.Reminder, error) {
	return s.list(`SELECT ` + reminderCols + ` FROM reminders ORDER BY created_at DESC`)
}

func (s *ReminderStore) ListByEmployee(employeeID int64) ([]model.Reminder, error) {
	return s.list(`SELECT `+reminderCols+` FROM reminders WHERE employee_id = ? ORDER BY created_at DESC`, employeeID)
}

// ListActive returns every reminder eligible for evaluation. Called on
// each scheduler tick, so the definition set is re-read rather than
// cached: a deactivation lands before the next due minute.
func (s *ReminderStore) ListActive() ([]model.Reminder, error) {
	return s.list(`SELECT ` + reminderCols + ` FROM reminders WHERE is_active = 1`)
}

func (s *ReminderStore) Update(id int64, title, message string, sched model.Schedule, active bool) (*model.Reminder, error) {
	waktu, days, date := scheduleColumns(sched)
	_, err := s.db.Exec(
		`UPDATE reminders
		 SET title = ?, message = ?, tipe = ?, waktu = ?, days = ?, specific_date = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, message, string(sched.Kind), waktu, days, date, boolInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReminderStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE reminders SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolInt(active), id,
	)
	if err != nil {
		return fmt.Errorf("set reminder active: %w", err)
	}
	return nil
}

func (s *ReminderStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

func (s *ReminderStore) list(query string, args ...any) ([]model.Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

func scanReminder(scanner interface{ Scan(...any) error }) (*model.Reminder, error) {
	var (
		r          model.Reminder
		tipe       string
		waktu      string
		days       string
		date       sql.NullString
		activeInt  int
	)
	err := scanner.Scan(&r.ID, &r.EmployeeID, &r.Title, &r.Message, &tipe, &waktu, &days, &date, &activeInt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Active = activeInt != 0

	sched, err := scheduleFromColumns(tipe, waktu, days, date)
	if err != nil {
		return nil, fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	r.Schedule = sched
	return &r, nil
}

// scheduleColumns flattens a Schedule into its storage columns.
func scheduleColumns(sched model.Schedule) (waktu string, days string, date any) {
	waktu = sched.At.String()
	days = strings.Join(model.DayLabels(sched.Days), ",")
	if !sched.Date.IsZero() {
		date = sched.Date.Format(model.DateFormat)
	}
	return waktu, days, date
}

func scheduleFromColumns(tipe, waktu, days string, date sql.NullString) (model.Schedule, error) {
	kind, err := model.ParseKind(tipe)
	if err != nil {
		return model.Schedule{}, err
	}
	at, err := model.ParseTimeOfDay(waktu)
	if err != nil {
		return model.Schedule{}, err
	}

	var weekdays []time.Weekday
	if days != "" {
		weekdays, err = model.ParseDays(strings.Split(days, ","))
		if err != nil {
			return model.Schedule{}, err
		}
	}

	var specific time.Time
	if date.Valid && date.String != "" {
		specific, err = time.Parse(model.DateFormat, date.String)
		if err != nil {
			return model.Schedule{}, fmt.Errorf("invalid specific_date %q: %w", date.String, err)
		}
	}

	return model.NewSchedule(kind, at, weekdays, specific)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
