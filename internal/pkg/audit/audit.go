package audit

import (
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/keyforgehq/keyforge/app/models"
)

// Recorder appends security-relevant events to the audit table and mirrors
// them to the application log. A failed insert is logged and swallowed so an
// audit outage never blocks the engine.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates an audit recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit event.
func (r *Recorder) Record(userID *uint, eventType, severity, details string) {
	ev := models.AuditEvent{
		UserID:    userID,
		EventType: eventType,
		Severity:  severity,
		Details:   details,
	}
	if err := r.db.Create(&ev).Error; err != nil {
		log.Errorf("[Audit] failed to persist %s event: %v", eventType, err)
	}

	switch severity {
	case models.AuditSeverityCritical:
		log.Errorf("[Audit] %s: %s", eventType, details)
	case models.AuditSeverityWarning:
		log.Warnf("[Audit] %s: %s", eventType, details)
	default:
		log.Infof("[Audit] %s: %s", eventType, details)
	}
}

// Recent returns the newest events for the admin review endpoint.
func (r *Recorder) Recent(limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []models.AuditEvent
	err := r.db.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
