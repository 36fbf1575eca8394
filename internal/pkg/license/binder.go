package license

import (
	"regexp"

	"github.com/keyforgehq/keyforge/app/models"
)

var fingerprintPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,255}$`)

// ValidateFingerprint checks the transport-level fingerprint format before
// any store access: 10-255 characters, alphanumeric plus hyphen/underscore.
func ValidateFingerprint(fp string) error {
	if !fingerprintPattern.MatchString(fp) {
		return ErrInvalidFingerprint
	}
	return nil
}

// CheckBinding enforces first-bind-wins semantics against an in-memory
// license. An unbound license accepts any valid fingerprint (the caller
// persists the bind), a bound license accepts only its own fingerprint.
// The returned bool reports whether the fingerprint still has to be persisted.
func CheckBinding(l *models.License, fp string) (bool, error) {
	if err := ValidateFingerprint(fp); err != nil {
		return false, err
	}
	if !l.IsBound() {
		return true, nil
	}
	if *l.DeviceFingerprint == fp {
		return false, nil
	}
	return false, ErrDeviceMismatch
}
