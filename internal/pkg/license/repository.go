package license

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keyforgehq/keyforge/app/models"
)

// Repository provides DB operations used by the license service and the decay
// monitor. Mutations on the hot paths are conditional single-statement updates
// so concurrent heartbeats and monitor ticks cannot lose a decrement.
type Repository interface {
	GetLicenseByUserID(userID uint) (*models.License, error)
	GetLicenseByFingerprint(fp string) (*models.License, error)
	ListActiveLicenses() ([]models.License, error)
	CreateLicense(l *models.License) error
	SaveLicense(l *models.License) error
	BindFingerprint(licenseID uint, fp string) (bool, error)
	DecrementRemaining(licenseID uint, heartbeatAt *time.Time) (*models.License, bool, error)
	ExtendLicense(licenseID uint, addMinutes int64, newExpiresAt time.Time, plan string) (bool, error)
	ExpireLicense(licenseID uint) (bool, error)
	RevokeLicense(licenseID uint) (bool, error)

	GetPaymentByReference(reference string) (*models.Payment, error)
	CreatePayment(p *models.Payment) error
	MarkPaymentApproved(reference, gatewayID string, at time.Time) (bool, error)

	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a license repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetLicenseByUserID(userID uint) (*models.License, error) {
	var l models.License
	if err := r.db.Where("user_id = ?", userID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *gormRepository) GetLicenseByFingerprint(fp string) (*models.License, error) {
	var l models.License
	if err := r.db.Where("device_fingerprint = ?", fp).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *gormRepository) ListActiveLicenses() ([]models.License, error) {
	var licenses []models.License
	err := r.db.Where("status = ?", models.LicenseStatusActive).
		Order("id ASC").Find(&licenses).Error
	return licenses, err
}

func (r *gormRepository) CreateLicense(l *models.License) error {
	return r.db.Create(l).Error
}

func (r *gormRepository) SaveLicense(l *models.License) error {
	return r.db.Save(l).Error
}

// BindFingerprint sets the device fingerprint if and only if none is stored
// yet. First-bind-wins is enforced at the statement level, so two concurrent
// binds cannot both succeed.
func (r *gormRepository) BindFingerprint(licenseID uint, fp string) (bool, error) {
	tx := r.db.Model(&models.License{}).
		Where("id = ? AND (device_fingerprint IS NULL OR device_fingerprint = '')", licenseID).
		Update("device_fingerprint", fp)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// DecrementRemaining consumes one minute of remaining time. The guard on the
// current status and counter keeps the counter non-negative under heartbeat +
// monitor collisions. A nil heartbeatAt leaves the heartbeat timestamp alone
// (monitor sweep path). The reloaded license and whether a row changed are
// returned.
func (r *gormRepository) DecrementRemaining(licenseID uint, heartbeatAt *time.Time) (*models.License, bool, error) {
	updates := map[string]interface{}{
		"remaining_minutes": gorm.Expr("remaining_minutes - 1"),
	}
	if heartbeatAt != nil {
		updates["last_heartbeat_at"] = *heartbeatAt
	}
	tx := r.db.Model(&models.License{}).
		Where("id = ? AND status = ? AND remaining_minutes > 0", licenseID, models.LicenseStatusActive).
		Updates(updates)
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	var l models.License
	if err := r.db.First(&l, licenseID).Error; err != nil {
		return nil, false, err
	}
	return &l, tx.RowsAffected > 0, nil
}

// ExtendLicense adds purchased minutes to the running counter and pushes the
// expiry out, in one statement so a racing decrement is not lost.
func (r *gormRepository) ExtendLicense(licenseID uint, addMinutes int64, newExpiresAt time.Time, plan string) (bool, error) {
	tx := r.db.Model(&models.License{}).
		Where("id = ? AND status = ?", licenseID, models.LicenseStatusActive).
		Updates(map[string]interface{}{
			"remaining_minutes": gorm.Expr("remaining_minutes + ?", addMinutes),
			"expires_at":        newExpiresAt,
			"plan":              plan,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) ExpireLicense(licenseID uint) (bool, error) {
	tx := r.db.Model(&models.License{}).
		Where("id = ? AND status = ?", licenseID, models.LicenseStatusActive).
		Update("status", models.LicenseStatusExpired)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) RevokeLicense(licenseID uint) (bool, error) {
	tx := r.db.Model(&models.License{}).
		Where("id = ? AND status <> ?", licenseID, models.LicenseStatusRevoked).
		Update("status", models.LicenseStatusRevoked)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetPaymentByReference(reference string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

// MarkPaymentApproved flips a pending payment to approved. The status guard
// makes the transition happen exactly once; a second caller sees zero rows
// affected and takes the idempotent replay path.
func (r *gormRepository) MarkPaymentApproved(reference, gatewayID string, at time.Time) (bool, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":      models.PaymentStatusApproved,
			"gateway_id":  gatewayID,
			"approved_at": at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
