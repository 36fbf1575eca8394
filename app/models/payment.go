package models

import "time"

const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusFailed   = "failed"
)

// Payment is created at checkout time and approved exactly once by the
// activation pipeline. The reference doubles as the idempotency key for
// gateway webhook retries; after approval the row is immutable except for the
// gateway id annotation.
type Payment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Reference   string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Plan        string     `gorm:"type:varchar(50);not null" json:"plan"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GatewayID   string     `gorm:"type:varchar(191);default:''" json:"gateway_id"`
	ApprovedAt  *time.Time `gorm:"type:timestamp;default:null" json:"approved_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsApproved reports whether the payment has already been processed.
func (p *Payment) IsApproved() bool {
	return p.Status == PaymentStatusApproved
}
