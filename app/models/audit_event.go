package models

import "time"

const (
	AuditSeverityInfo     = "info"
	AuditSeverityWarning  = "warning"
	AuditSeverityCritical = "critical"
)

const (
	AuditActivationSucceeded = "activation_succeeded"
	AuditActivationDuplicate = "activation_duplicate"
	AuditAmountMismatch      = "amount_mismatch"
	AuditPaymentNotFound     = "payment_not_found"
	AuditDeviceMismatch      = "device_mismatch"
	AuditLicenseExpired      = "license_expired"
	AuditLicenseRevoked      = "license_revoked"
	AuditWebhookRejected     = "webhook_rejected"
)

// AuditEvent is an append-only forensic record. Rows are never updated or
// deleted by the application.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index;default:null" json:"user_id,omitempty"`
	EventType string    `gorm:"type:varchar(50);not null;index" json:"event_type"`
	Severity  string    `gorm:"type:varchar(20);not null;default:'info';index" json:"severity"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
