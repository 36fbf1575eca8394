package license

import "testing"

func TestParseGatewayEvent(t *testing.T) {
	payload := []byte(`{"event_id":"evt_1","event_type":"Payment.Approved","reference":" ref-123 ","gateway_id":"tx_9","amount_cents":990}`)

	ev, err := ParseGatewayEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventType != GatewayEventPaymentApproved {
		t.Fatalf("event type = %q, want %q", ev.EventType, GatewayEventPaymentApproved)
	}
	if ev.Reference != "ref-123" {
		t.Fatalf("reference = %q, want ref-123", ev.Reference)
	}
	if ev.AmountCents != 990 {
		t.Fatalf("amount = %d, want 990", ev.AmountCents)
	}
}

func TestParseGatewayEventMissingReference(t *testing.T) {
	if _, err := ParseGatewayEvent([]byte(`{"event_type":"payment.approved"}`)); err == nil {
		t.Fatalf("expected error for missing reference")
	}
}

func TestParseGatewayEventBadJSON(t *testing.T) {
	if _, err := ParseGatewayEvent([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestIsActivationEvent(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "payment.approved", want: true},
		{in: " Payment.Approved ", want: true},
		{in: "payment.failed", want: false},
		{in: "refund.created", want: false},
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := IsActivationEvent(tt.in); got != tt.want {
			t.Fatalf("IsActivationEvent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
