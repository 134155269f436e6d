package model

import "time"

// Employee (pegawai) is the owner of reminders and the recipient of
// WhatsApp deliveries.
type Employee struct {
	ID             int64     `json:"id"`
	Name           string    `json:"nama"`
	WhatsAppNumber string    `json:"nomor_whatsapp"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
