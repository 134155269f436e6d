package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind is the recurrence cadence of a reminder. The wire values are the
// Indonesian labels the dashboard sends.
type Kind string

const (
	KindDaily   Kind = "Harian"
	KindWeekly  Kind = "Mingguan"
	KindMonthly Kind = "Bulanan"
	KindOnce    Kind = "Sekali"
)

// ParseKind validates a tipe_reminder wire value.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	case KindMonthly:
		return KindMonthly, nil
	case KindOnce:
		return KindOnce, nil
	}
	return "", fmt.Errorf("unknown tipe_reminder: %q", s)
}

var dayNames = map[string]time.Weekday{
	"Senin":  time.Monday,
	"Selasa": time.Tuesday,
	"Rabu":   time.Wednesday,
	"Kamis":  time.Thursday,
	"Jumat":  time.Friday,
	"Sabtu":  time.Saturday,
	"Minggu": time.Sunday,
}

var dayLabels = map[time.Weekday]string{
	time.Monday:    "Senin",
	time.Tuesday:   "Selasa",
	time.Wednesday: "Rabu",
	time.Thursday:  "Kamis",
	time.Friday:    "Jumat",
	time.Saturday:  "Sabtu",
	time.Sunday:    "Minggu",
}

// ParseDay maps a hari_dalam_minggu entry to its weekday.
func ParseDay(s string) (time.Weekday, error) {
	d, ok := dayNames[strings.TrimSpace(s)]
	if !ok {
		return 0, fmt.Errorf("unknown day: %q", s)
	}
	return d, nil
}

// DayLabel returns the Indonesian label for a weekday.
func DayLabel(d time.Weekday) string { return dayLabels[d] }

// ParseDays parses a list of Indonesian day names, rejecting duplicates.
func ParseDays(names []string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, n := range names {
		d, err := ParseDay(n)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			return nil, fmt.Errorf("duplicate day: %q", n)
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}

// DayLabels converts weekdays back to their wire labels, Monday first.
func DayLabels(days []time.Weekday) []string {
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return dayOrder(sorted[i]) < dayOrder(sorted[j]) })
	labels := make([]string, 0, len(sorted))
	for _, d := range sorted {
		labels = append(labels, dayLabels[d])
	}
	return labels
}

// dayOrder ranks Monday..Sunday, matching the Senin..Minggu week.
func dayOrder(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// TimeOfDay is a wall-clock minute in the organization timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a waktu_reminder value ("HH:MM").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Matches reports whether now falls on this wall-clock minute.
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// DateFormat is the wire and storage layout for calendar dates
// (occurrence keys, tanggal_spesifik).
const DateFormat = "2006-01-02"

// Schedule describes when a reminder fires. Construct through the
// per-kind constructors so the side fields always agree with the kind:
// Days is non-empty exactly for Mingguan, Date is set exactly for
// Sekali and Bulanan (the Bulanan anchor day comes from Date).
type Schedule struct {
	Kind Kind
	At   TimeOfDay
	Days []time.Weekday
	Date time.Time
}

// DailySchedule fires every day at the given time.
func DailySchedule(at TimeOfDay) Schedule {
	return Schedule{Kind: KindDaily, At: at}
}

// WeeklySchedule fires on each listed weekday at the given time.
func WeeklySchedule(at TimeOfDay, days []time.Weekday) (Schedule, error) {
	if len(days) == 0 {
		return Schedule{}, fmt.Errorf("weekly reminder requires at least one day")
	}
	return Schedule{Kind: KindWeekly, At: at, Days: append([]time.Weekday(nil), days...)}, nil
}

// MonthlySchedule fires every month on anchor's day-of-month. Anchors
// past the end of a month fire on that month's last day.
func MonthlySchedule(at TimeOfDay, anchor time.Time) (Schedule, error) {
	if anchor.IsZero() {
		return Schedule{}, fmt.Errorf("monthly reminder requires tanggal_spesifik as anchor")
	}
	return Schedule{Kind: KindMonthly, At: at, Date: dateOnly(anchor)}, nil
}

// OnceSchedule fires a single time on the given date.
func OnceSchedule(at TimeOfDay, date time.Time) (Schedule, error) {
	if date.IsZero() {
		return Schedule{}, fmt.Errorf("one-time reminder requires tanggal_spesifik")
	}
	return Schedule{Kind: KindOnce, At: at, Date: dateOnly(date)}, nil
}

// NewSchedule builds a Schedule from decoded wire fields, routing to the
// kind-specific constructor.
func NewSchedule(kind Kind, at TimeOfDay, days []time.Weekday, date time.Time) (Schedule, error) {
	switch kind {
	case KindDaily:
		if len(days) > 0 || !date.IsZero() {
			return Schedule{}, fmt.Errorf("daily reminder must not set days or tanggal_spesifik")
		}
		return DailySchedule(at), nil
	case KindWeekly:
		if !date.IsZero() {
			return Schedule{}, fmt.Errorf("weekly reminder must not set tanggal_spesifik")
		}
		return WeeklySchedule(at, days)
	case KindMonthly:
		if len(days) > 0 {
			return Schedule{}, fmt.Errorf("monthly reminder must not set days")
		}
		return MonthlySchedule(at, date)
	case KindOnce:
		if len(days) > 0 {
			return Schedule{}, fmt.Errorf("one-time reminder must not set days")
		}
		return OnceSchedule(at, date)
	}
	return Schedule{}, fmt.Errorf("unknown tipe_reminder: %q", kind)
}

// OnDay reports whether the weekday is part of a Mingguan day set.
func (s Schedule) OnDay(d time.Weekday) bool {
	for _, day := range s.Days {
		if day == d {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Reminder is a declarative reminder definition owned by one employee.
type Reminder struct {
	ID         int64
	EmployeeID int64
	Title      string
	Message    string
	Schedule   Schedule
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// reminderWire is the flat JSON shape the dashboard speaks.
type reminderWire struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"pegawai_id"`
	Title      string    `json:"judul_reminder"`
	Message    string    `json:"pesan_reminder"`
	Kind       Kind      `json:"tipe_reminder"`
	At         string    `json:"waktu_reminder"`
	Days       []string  `json:"hari_dalam_minggu"`
	Date       *string   `json:"tanggal_spesifik"`
	Active     bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r Reminder) MarshalJSON() ([]byte, error) {
	w := reminderWire{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Title:      r.Title,
		Message:    r.Message,
		Kind:       r.Schedule.Kind,
		At:         r.Schedule.At.String(),
		Days:       []string{},
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if len(r.Schedule.Days) > 0 {
		w.Days = DayLabels(r.Schedule.Days)
	}
	if !r.Schedule.Date.IsZero() {
		d := r.Schedule.Date.Format(DateFormat)
		w.Date = &d
	}
	return json.Marshal(w)
}
