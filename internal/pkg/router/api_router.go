package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/keyforgehq/keyforge/app/controllers"
	"github.com/keyforgehq/keyforge/internal/pkg/env"
	"github.com/keyforgehq/keyforge/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "KeyForge API",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")

	// account + loader key issuance
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleApiRegister)
	auth.Post("/login", controllers.HandleApiLogin)

	// loader-facing license endpoints, all behind loader key auth
	lic := v1.Group("/license", middleware.LoaderKeyAuthMiddleware())
	lic.Get("/status", controllers.HandleLicenseStatus)
	lic.Post("/bind", controllers.HandleLicenseBind)
	lic.Post("/heartbeat", controllers.HandleLicenseHeartbeat)

	// payments: checkout needs a loader key, the webhook is called by the
	// gateway and authenticates via HMAC signature instead
	payments := v1.Group("/payments")
	payments.Post("/checkout", middleware.LoaderKeyAuthMiddleware(), controllers.HandleCheckout)
	payments.Post("/webhook", controllers.HandleGatewayWebhook)

	// admin endpoints behind basic auth
	admin := v1.Group("/admin", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_API_USER", "admin"): env.GetEnv("ADMIN_API_PASSWORD", "admin"),
		},
	}))
	admin.Post("/licenses/:user_id/revoke", controllers.HandleAdminRevokeLicense)
	admin.Get("/audit", controllers.HandleAdminAuditEvents)
	admin.Post("/monitor/sweep", controllers.HandleAdminRunSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
