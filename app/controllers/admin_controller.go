package controllers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/keyforgehq/keyforge/internal/pkg/monitor"
)

// HandleAdminRevokeLicense kills a user's license permanently. Revoked
// licenses never reactivate; a new purchase creates a fresh entitlement.
func HandleAdminRevokeLicense(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("user_id"), 10, 32)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	reason := struct {
		Reason string `json:"reason"`
	}{}
	// Body is optional, a bare POST revokes without a stated reason.
	_ = c.BodyParser(&reason)

	svc := licenseService()
	if err := svc.Revoke(context.Background(), uint(userID), reason.Reason); err != nil {
		return licenseErrorResponse(c, err)
	}

	log.Infof("[Admin] License for user %d revoked", userID)
	invalidateUserStatus(uint(userID))

	return c.JSON(fiber.Map{
		"status":  "revoked",
		"user_id": userID,
	})
}

// HandleAdminAuditEvents returns the most recent audit log entries.
func HandleAdminAuditEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := auditRecorder().Recent(limit)
	if err != nil {
		log.Errorf("[Admin] Loading audit events failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load audit events",
		})
	}

	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// HandleAdminRunSweep triggers a decay sweep outside the regular tick.
func HandleAdminRunSweep(c *fiber.Ctx) error {
	if err := monitor.GetManager().RunSweepOnce(); err != nil {
		log.Errorf("[Admin] Manual sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sweep failed",
		})
	}

	return c.JSON(fiber.Map{
		"status": "swept",
	})
}
