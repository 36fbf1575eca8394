package license

import (
	"time"

	"github.com/keyforgehq/keyforge/app/models"
)

// StatusResult is the read-side validity report served to the loader.
type StatusResult struct {
	Valid         bool          `json:"valid"`
	Plan          string        `json:"plan,omitempty"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	TimeRemaining TimeRemaining `json:"time_remaining"`
}

// HeartbeatResult is returned after a successful heartbeat decrement.
type HeartbeatResult struct {
	Valid         bool          `json:"valid"`
	TimeRemaining TimeRemaining `json:"time_remaining"`
}

// ActivationResult reports the license state after processing a payment
// confirmation. AlreadyProcessed marks the idempotent replay path: the
// payment had been approved before and no additional time was granted.
type ActivationResult struct {
	License          *models.License
	AlreadyProcessed bool
}

// GatewayEvent is the normalized shape of a payment gateway confirmation
// callback after payload parsing.
type GatewayEvent struct {
	Provider    string `json:"provider"`
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	Reference   string `json:"reference"`
	GatewayID   string `json:"gateway_id"`
	AmountCents int64  `json:"amount_cents"`
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// AuditSink receives security-relevant engine events. The concrete sink
// persists them append-only; the engine never reads them back.
type AuditSink interface {
	Record(userID *uint, eventType, severity, details string)
}

// Notifier delivers the post-activation notification. Delivery failure must
// never roll back an activation, so implementations report errors on their
// own channel (logs) instead of returning them.
type Notifier interface {
	LicenseActivated(userID uint, plan string, expiresAt time.Time)
}
