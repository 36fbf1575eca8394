package license

import "errors"

// Typed failures returned by the engine. Validation failures are returned as
// sentinel errors to the immediate caller, never raised as transport faults;
// handlers map them to response codes.
var (
	ErrNoActiveLicense    = errors.New("no active license")
	ErrLicenseExpired     = errors.New("license expired")
	ErrLicenseRevoked     = errors.New("license revoked")
	ErrDeviceMismatch     = errors.New("device fingerprint mismatch")
	ErrInvalidFingerprint = errors.New("invalid device fingerprint")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrAmountMismatch     = errors.New("payment amount mismatch")
	ErrUnknownPlan        = errors.New("unknown plan")
	ErrStoreUnavailable   = errors.New("store unavailable")
)
