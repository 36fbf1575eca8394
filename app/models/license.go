package models

import "time"

const (
	LicenseStatusNone    = "none"
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
	LicenseStatusRevoked = "revoked"
)

// License is the authoritative entitlement record for a user. Exactly one row
// per user carries the current state; renewals extend this row instead of
// creating a second active record.
type License struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan              string     `gorm:"type:varchar(50);not null;default:'trial'" json:"plan"`
	Status            string     `gorm:"type:varchar(20);not null;default:'none';index" json:"status"`
	DeviceFingerprint *string    `gorm:"type:varchar(255);default:null;index" json:"device_fingerprint,omitempty"`
	ExpiresAt         *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	RemainingMinutes  int64      `gorm:"not null;default:0" json:"remaining_minutes"`
	ActivatedAt       *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	LastHeartbeatAt   *time.Time `gorm:"type:timestamp;default:null" json:"last_heartbeat_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsBound reports whether the license is locked to a device fingerprint.
func (l *License) IsBound() bool {
	return l.DeviceFingerprint != nil && *l.DeviceFingerprint != ""
}

// IsActive reports whether the license status is active.
func (l *License) IsActive() bool {
	return l.Status == LicenseStatusActive
}

// HasRemainingTime reports whether both decay clocks still grant access at
// the given instant: the wall-clock expiry and the remaining-minute counter.
func (l *License) HasRemainingTime(now time.Time) bool {
	if l.ExpiresAt == nil || !now.Before(*l.ExpiresAt) {
		return false
	}
	return l.RemainingMinutes > 0
}
