package models

import "time"

// Notification is an outbox row: created by business flows, drained by the
// email worker. Delivery is best-effort and never blocks the flow that
// created it.
type Notification struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject string `gorm:"not null" json:"subject"`
	Message string `gorm:"type:text" json:"message"`

	Sent   bool       `gorm:"not null;default:false;index" json:"sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
