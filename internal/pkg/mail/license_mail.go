package mail

import (
	"fmt"
	"log"
	"time"

	"github.com/keyforgehq/keyforge/app/models"
	"github.com/keyforgehq/keyforge/internal/pkg/database"
)

// LicenseNotifier sends the post-activation notification mail. Delivery runs
// in the background and failure is logged only; an undelivered mail never
// rolls back an activation.
type LicenseNotifier struct{}

// LicenseActivated implements the license.Notifier interface.
func (LicenseNotifier) LicenseActivated(userID uint, plan string, expiresAt time.Time) {
	go func() {
		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			log.Printf("license mail: could not load user %d: %v", userID, err)
			return
		}

		subject := "Your license is active"
		body := BuildLicenseActivatedBody(user.Name, plan, expiresAt)
		if err := SendMail(user.Email, subject, body); err != nil {
			log.Printf("license mail: delivery to %s failed: %v", user.Email, err)
		}
	}()
}

// BuildLicenseActivatedBody renders the plain HTML activation mail body.
func BuildLicenseActivatedBody(name, plan string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"<html><body>"+
			"<p>Hi %s,</p>"+
			"<p>your payment was confirmed and your <strong>%s</strong> license is now active.</p>"+
			"<p>Access is valid until <strong>%s</strong>. Start the loader on your device to bind and use it.</p>"+
			"<p>Thanks for your purchase!</p>"+
			"</body></html>",
		name, plan, expiresAt.Format("2006-01-02 15:04 MST"),
	)
}
