package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/keyforgehq/keyforge/app/models"
	"github.com/keyforgehq/keyforge/app/repository"
	"github.com/keyforgehq/keyforge/internal/pkg/database"
	"github.com/keyforgehq/keyforge/internal/pkg/usercontext"
)

// LoaderKeyAuthMiddleware authenticates requests carrying a loader key header.
func LoaderKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		loaderKey := extractLoaderKeyFromHeader(c)
		if loaderKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing loader key"})
		}

		db := database.GetDB()
		if db == nil {
			log.Print("loader key middleware: database unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
		}

		hash := models.HashLoaderKey(loaderKey)
		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByLoaderKeyHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid loader key"})
			}
			log.Printf("loader key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Loader key verification failed"})
		}

		if user.Status != models.STATUS_ACTIVE {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
		}
		if !user.HasActiveLoaderKey() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Loader key revoked"})
		}

		// Refresh last-used timestamp best-effort.
		if err := repo.TouchLoaderKeyUsage(user.ID); err != nil {
			log.Printf("failed to update loader key usage timestamp for user %d: %v", user.ID, err)
		}

		userCtx := usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			IsLoggedIn: true,
			IsAdmin:    user.Role == models.ROLE_ADMIN,
		}
		c.Locals("USER_CONTEXT", userCtx)
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyUsername, user.Name)
		c.Locals(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

		return c.Next()
	}
}

func extractLoaderKeyFromHeader(c *fiber.Ctx) string {
	loaderKey := strings.TrimSpace(c.Get("X-Loader-Key"))
	if loaderKey != "" {
		return loaderKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
