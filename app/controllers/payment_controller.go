package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/keyforgehq/keyforge/app/models"
	"github.com/keyforgehq/keyforge/internal/pkg/database"
	"github.com/keyforgehq/keyforge/internal/pkg/env"
	"github.com/keyforgehq/keyforge/internal/pkg/license"
	"github.com/keyforgehq/keyforge/internal/pkg/usercontext"
)

const gatewayProvider = "gateway"

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// HandleCheckout creates the pending payment for a plan purchase and returns
// the reference the gateway confirmation will later carry.
func HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	payment, err := licenseService().Checkout(context.Background(), userCtx.UserID, req.Plan)
	if err != nil {
		if errors.Is(err, license.ErrUnknownPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_plan", "message": "Plan is not in the catalog"})
		}
		log.Errorf("checkout failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Checkout failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference":    payment.Reference,
		"plan":         payment.Plan,
		"amount_cents": payment.AmountCents,
	})
}

// HandleGatewayWebhook processes payment confirmation callbacks. Events are
// persisted first for deduplication, then the activation pipeline runs.
// Internal activation failures are recorded and acknowledged with 200 so the
// gateway does not retry forever; only signature and persistence failures
// are surfaced as transport errors.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := strings.TrimSpace(c.Get("X-Gateway-Event-ID"))
	eventType := strings.TrimSpace(c.Get("X-Gateway-Event"))
	signature := strings.TrimSpace(c.Get("X-Gateway-Signature"))
	secret := env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")

	svc := licenseService()
	repo := license.NewRepository(database.GetDB())

	signatureValid := license.VerifyWebhookSignature(rawBody, signature, secret)
	created, stored, err := svc.RecordWebhookEvent(context.Background(), license.WebhookEventInput{
		Provider:        gatewayProvider,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		log.Errorf("webhook persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		auditRecorder().Record(nil, models.AuditWebhookRejected, models.AuditSeverityWarning,
			"gateway webhook with invalid signature, event "+stored.ProviderEventID)
		_ = repo.MarkWebhookProcessed(stored.ID, "invalid webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}
	if !license.IsActivationEvent(eventType) {
		_ = repo.MarkWebhookProcessed(stored.ID, "")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	event, err := license.ParseGatewayEvent(rawBody)
	if err != nil {
		_ = repo.MarkWebhookProcessed(stored.ID, err.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	result, actErr := svc.Activate(context.Background(), event.Reference, event.AmountCents, event.GatewayID)
	if actErr != nil {
		// Recorded and acknowledged; the user resolves failed activations
		// through the dashboard or support, not through gateway retries.
		log.Warnf("activation for payment %s failed: %v", event.Reference, actErr)
		_ = repo.MarkWebhookProcessed(stored.ID, actErr.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}

	_ = repo.MarkWebhookProcessed(stored.ID, "")
	response := fiber.Map{"ok": true}
	if result.AlreadyProcessed {
		response["already_processed"] = true
	}
	if result.License != nil {
		invalidateUserStatus(result.License.UserID)
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

