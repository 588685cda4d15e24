package models

import "time"

// Pending email kinds.
const (
	EmailKindAcceptance = "acceptance"
	EmailKindRejection  = "rejection"
)

// PendingEmail is one not-yet-sent decision notification, queued while the
// notification mode is manual and drained by the admin flush endpoint.
type PendingEmail struct {
	PendingEmailID int       `gorm:"primaryKey;column:pending_email_id" json:"pending_email_id"`
	AbstractID     int       `gorm:"column:abstract_id" json:"abstract_id"`
	AbstractCode   string    `gorm:"column:abstract_code" json:"abstract_code"`
	Kind           string    `gorm:"column:kind" json:"kind"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (PendingEmail) TableName() string { return "pending_emails" }
