package license

import (
	"errors"
	"strings"
	"testing"

	"github.com/keyforgehq/keyforge/app/models"
)

func TestValidateFingerprint(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{in: "a1b2c3d4e5", ok: true},
		{in: "machine-01_HASH", ok: true},
		{in: strings.Repeat("f", 255), ok: true},
		{in: "short", ok: false},
		{in: "", ok: false},
		{in: strings.Repeat("f", 256), ok: false},
		{in: "has spaces here!", ok: false},
		{in: "emoji-🔥-fingerprint", ok: false},
	}

	for _, tt := range tests {
		err := ValidateFingerprint(tt.in)
		if tt.ok && err != nil {
			t.Fatalf("ValidateFingerprint(%q) = %v, want nil", tt.in, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidFingerprint) {
			t.Fatalf("ValidateFingerprint(%q) = %v, want ErrInvalidFingerprint", tt.in, err)
		}
	}
}

func TestCheckBindingUnbound(t *testing.T) {
	l := &models.License{Status: models.LicenseStatusActive}

	needsBind, err := CheckBinding(l, "device-fingerprint-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !needsBind {
		t.Fatalf("expected unbound license to need a bind")
	}
}

func TestCheckBindingSameDevice(t *testing.T) {
	fp := "device-fingerprint-1"
	l := &models.License{Status: models.LicenseStatusActive, DeviceFingerprint: &fp}

	needsBind, err := CheckBinding(l, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if needsBind {
		t.Fatalf("expected rebind of same device to be a no-op")
	}
}

func TestCheckBindingOtherDevice(t *testing.T) {
	fp := "device-fingerprint-1"
	l := &models.License{Status: models.LicenseStatusActive, DeviceFingerprint: &fp}

	if _, err := CheckBinding(l, "device-fingerprint-2"); !errors.Is(err, ErrDeviceMismatch) {
		t.Fatalf("expected ErrDeviceMismatch, got %v", err)
	}
}
