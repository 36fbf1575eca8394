package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/keyforgehq/keyforge/internal/pkg/cache"
	"github.com/keyforgehq/keyforge/internal/pkg/license"
	"github.com/keyforgehq/keyforge/internal/pkg/usercontext"
)

const statusCacheTTL = 30 * time.Second

type fingerprintRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// HandleLicenseStatus reports license validity without consuming remaining
// time. The loader calls this once on session start before it begins the
// heartbeat loop.
func HandleLicenseStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	fingerprint := strings.TrimSpace(c.Query("fingerprint"))

	if cached, ok := cachedStatus(userCtx.UserID, fingerprint); ok {
		return c.JSON(cached)
	}

	result, err := licenseService().Status(context.Background(), userCtx.UserID, fingerprint)
	if err != nil {
		return licenseErrorResponse(c, err)
	}

	cacheStatus(userCtx.UserID, fingerprint, result)
	return c.JSON(result)
}

// HandleLicenseBind locks the license to the calling device. The first valid
// fingerprint wins; later calls from the same device are no-ops.
func HandleLicenseBind(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req fingerprintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	fingerprint := strings.TrimSpace(req.Fingerprint)
	if err := licenseService().BindDevice(context.Background(), userCtx.UserID, fingerprint); err != nil {
		return licenseErrorResponse(c, err)
	}

	invalidateUserStatus(userCtx.UserID)
	return c.JSON(fiber.Map{"bound": true})
}

// HandleLicenseHeartbeat consumes one minute of remaining license time after
// re-validating the device binding. The loader calls this every 60 seconds.
func HandleLicenseHeartbeat(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req fingerprintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	fingerprint := strings.TrimSpace(req.Fingerprint)
	result, err := licenseService().Heartbeat(context.Background(), userCtx.UserID, fingerprint)
	if err != nil {
		return licenseErrorResponse(c, err)
	}

	invalidateUserStatus(userCtx.UserID)
	countHeartbeat()
	return c.JSON(result)
}

func statusCacheKey(userID uint, fingerprint string) string {
	return fmt.Sprintf("license:status:%d:%s", userID, fingerprint)
}

// cachedStatus returns a recently cached valid status result. Only successful
// results are cached; every failure path goes to the store.
func cachedStatus(userID uint, fingerprint string) (*license.StatusResult, bool) {
	raw, err := cache.Get(statusCacheKey(userID, fingerprint))
	if err != nil {
		return nil, false
	}
	var result license.StatusResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func cacheStatus(userID uint, fingerprint string, result license.StatusResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := cache.Set(statusCacheKey(userID, fingerprint), payload, statusCacheTTL); err != nil {
		log.Debugf("status cache set failed for user %d: %v", userID, err)
	}
}

// invalidateUserStatus drops every cached status entry for the user, bound
// and unbound variants alike, so revocations and renewals become visible
// before the cache TTL would age the entries out.
func invalidateUserStatus(userID uint) {
	if err := cache.DeletePrefix(fmt.Sprintf("license:status:%d:", userID)); err != nil {
		log.Debugf("status cache invalidate failed for user %d: %v", userID, err)
	}
}

// countHeartbeat keeps a per-day heartbeat counter for ops visibility.
func countHeartbeat() {
	key := "stats:heartbeats:" + time.Now().Format("2006-01-02")
	if _, err := cache.Incr(key); err != nil {
		log.Debugf("heartbeat counter incr failed: %v", err)
	}
}
