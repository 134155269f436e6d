package model

import "time"

// Notification is the durable record of one fired reminder occurrence.
// It is written at dispatch time and read back by clients that were not
// connected when the live push happened.
type Notification struct {
	ID          int64      `json:"id"`
	EmployeeID  int64      `json:"pegawai_id"`
	ReminderID  int64      `json:"reminder_id"`
	Title       string     `json:"judul"`
	Message     string     `json:"pesan"`
	Kind        Kind       `json:"tipe"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
}
