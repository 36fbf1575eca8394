package license

import (
	"encoding/json"
	"errors"
	"strings"
)

// Gateway confirmation event types the activation pipeline reacts to. Other
// event types are persisted for the audit trail and otherwise ignored.
const (
	GatewayEventPaymentApproved = "payment.approved"
)

// ParseGatewayEvent decodes a gateway confirmation payload into the
// normalized event shape. The payload format is provider-neutral JSON:
//
//	{"event_id": "...", "event_type": "payment.approved",
//	 "reference": "...", "gateway_id": "...", "amount_cents": 1990}
func ParseGatewayEvent(payload []byte) (*GatewayEvent, error) {
	var ev GatewayEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	ev.EventType = strings.ToLower(strings.TrimSpace(ev.EventType))
	ev.Reference = strings.TrimSpace(ev.Reference)
	if ev.Reference == "" {
		return nil, errors.New("gateway event missing payment reference")
	}
	return &ev, nil
}

// IsActivationEvent reports whether the event type triggers activation.
func IsActivationEvent(eventType string) bool {
	return strings.ToLower(strings.TrimSpace(eventType)) == GatewayEventPaymentApproved
}
