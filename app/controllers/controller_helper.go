package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/keyforgehq/keyforge/internal/pkg/audit"
	"github.com/keyforgehq/keyforge/internal/pkg/database"
	"github.com/keyforgehq/keyforge/internal/pkg/license"
	"github.com/keyforgehq/keyforge/internal/pkg/mail"
)

// licenseService wires the engine against the shared DB handle.
func licenseService() *license.Service {
	db := database.GetDB()
	return license.NewServiceFromDB(db, audit.NewRecorder(db), mail.LicenseNotifier{})
}

// auditRecorder returns a recorder bound to the shared DB handle.
func auditRecorder() *audit.Recorder {
	return audit.NewRecorder(database.GetDB())
}

// licenseErrorResponse maps engine errors onto loader-facing responses. All
// license failures are "access denied" signals: the loader must stop
// operating, not fall open.
func licenseErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, license.ErrInvalidFingerprint):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": "invalid_fingerprint", "message": "Fingerprint format rejected"})
	case errors.Is(err, license.ErrDeviceMismatch):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"valid": false, "error": "device_mismatch", "message": "License is bound to a different device"})
	case errors.Is(err, license.ErrNoActiveLicense):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"valid": false, "error": "no_active_license", "message": "No active license"})
	case errors.Is(err, license.ErrLicenseExpired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"valid": false, "error": "expired", "message": "License expired"})
	case errors.Is(err, license.ErrLicenseRevoked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"valid": false, "error": "revoked", "message": "License revoked"})
	case errors.Is(err, license.ErrUnknownPlan):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_plan", "message": "Plan is not in the catalog"})
	case errors.Is(err, license.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"valid": false, "error": "store_unavailable", "message": "Temporary storage failure, retry shortly"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"valid": false, "error": "internal_server_error", "message": "License check failed"})
	}
}
