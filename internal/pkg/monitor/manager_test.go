package monitor

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/keyforgehq/keyforge/app/models"
)

// sweepRepo implements license.Repository for sweep tests. Only the methods
// the monitor touches carry behavior.
type sweepRepo struct {
	licenses map[uint]*models.License

	failDecrementFor uint
	decrements       int
}

func newSweepRepo(licenses ...*models.License) *sweepRepo {
	r := &sweepRepo{licenses: make(map[uint]*models.License)}
	for i, l := range licenses {
		l.ID = uint(i + 1)
		r.licenses[l.ID] = l
	}
	return r
}

func (r *sweepRepo) ListActiveLicenses() ([]models.License, error) {
	var out []models.License
	for id := uint(1); id <= uint(len(r.licenses)); id++ {
		if l, ok := r.licenses[id]; ok && l.Status == models.LicenseStatusActive {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *sweepRepo) DecrementRemaining(licenseID uint, heartbeatAt *time.Time) (*models.License, bool, error) {
	if licenseID == r.failDecrementFor {
		return nil, false, errors.New("simulated store failure")
	}
	l, ok := r.licenses[licenseID]
	if !ok {
		return nil, false, gorm.ErrRecordNotFound
	}
	if l.Status != models.LicenseStatusActive || l.RemainingMinutes <= 0 {
		cp := *l
		return &cp, false, nil
	}
	l.RemainingMinutes--
	r.decrements++
	if heartbeatAt != nil {
		l.LastHeartbeatAt = heartbeatAt
	}
	cp := *l
	return &cp, true, nil
}

func (r *sweepRepo) ExpireLicense(licenseID uint) (bool, error) {
	l, ok := r.licenses[licenseID]
	if !ok || l.Status != models.LicenseStatusActive {
		return false, nil
	}
	l.Status = models.LicenseStatusExpired
	return true, nil
}

func (r *sweepRepo) GetLicenseByUserID(userID uint) (*models.License, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *sweepRepo) GetLicenseByFingerprint(fp string) (*models.License, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *sweepRepo) CreateLicense(l *models.License) error  { return nil }
func (r *sweepRepo) SaveLicense(l *models.License) error    { return nil }
func (r *sweepRepo) BindFingerprint(licenseID uint, fp string) (bool, error) {
	return false, nil
}

func (r *sweepRepo) ExtendLicense(licenseID uint, addMinutes int64, newExpiresAt time.Time, plan string) (bool, error) {
	return false, nil
}

func (r *sweepRepo) RevokeLicense(licenseID uint) (bool, error) { return false, nil }

func (r *sweepRepo) GetPaymentByReference(reference string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *sweepRepo) CreatePayment(p *models.Payment) error { return nil }
func (r *sweepRepo) MarkPaymentApproved(reference, gatewayID string, at time.Time) (bool, error) {
	return false, nil
}

func (r *sweepRepo) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	return false, nil, nil
}

func (r *sweepRepo) MarkWebhookProcessed(id uint, processingError string) error { return nil }

type sweepAudit struct {
	events []string
}

func (a *sweepAudit) Record(userID *uint, eventType, severity, details string) {
	a.events = append(a.events, eventType)
}

func sweepLicense(userID uint, minutes int64, expiresAt time.Time) *models.License {
	return &models.License{
		UserID:           userID,
		Status:           models.LicenseStatusActive,
		ExpiresAt:        &expiresAt,
		RemainingMinutes: minutes,
	}
}

func TestSweepDecrementsActiveLicenses(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newSweepRepo(
		sweepLicense(1, 100, now.Add(24*time.Hour)),
		sweepLicense(2, 50, now.Add(24*time.Hour)),
	)

	m := NewManager(repo, &sweepAudit{}, time.Minute)
	m.now = func() time.Time { return now }

	if err := m.RunSweepOnce(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if got := repo.licenses[1].RemainingMinutes; got != 99 {
		t.Fatalf("license 1 remaining = %d, want 99", got)
	}
	if got := repo.licenses[2].RemainingMinutes; got != 49 {
		t.Fatalf("license 2 remaining = %d, want 49", got)
	}
}

func TestSweepDoesNotTouchHeartbeatTimestamp(t *testing.T) {
	now := time.Now()
	repo := newSweepRepo(sweepLicense(1, 100, now.Add(24*time.Hour)))

	m := NewManager(repo, &sweepAudit{}, time.Minute)
	m.now = func() time.Time { return now }

	if err := m.RunSweepOnce(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if repo.licenses[1].LastHeartbeatAt != nil {
		t.Fatalf("monitor decrement must not fake a heartbeat")
	}
}

func TestSweepExpiresWallClock(t *testing.T) {
	now := time.Now()
	audit := &sweepAudit{}
	repo := newSweepRepo(sweepLicense(1, 500, now.Add(-time.Minute)))

	m := NewManager(repo, audit, time.Minute)
	m.now = func() time.Time { return now }

	if err := m.RunSweepOnce(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if got := repo.licenses[1].Status; got != models.LicenseStatusExpired {
		t.Fatalf("license status = %s, want expired", got)
	}
	if repo.decrements != 0 {
		t.Fatalf("wall-clock expired license must not be decremented")
	}
	if len(audit.events) != 1 || audit.events[0] != models.AuditLicenseExpired {
		t.Fatalf("expected one expiry audit event, got %v", audit.events)
	}
}

func TestSweepExpiresSpentCounter(t *testing.T) {
	now := time.Now()
	repo := newSweepRepo(sweepLicense(1, 1, now.Add(24*time.Hour)))

	m := NewManager(repo, &sweepAudit{}, time.Minute)
	m.now = func() time.Time { return now }

	if err := m.RunSweepOnce(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if got := repo.licenses[1].Status; got != models.LicenseStatusExpired {
		t.Fatalf("license status = %s, want expired after last minute", got)
	}
}

func TestSweepSkipsFailingRecord(t *testing.T) {
	now := time.Now()
	repo := newSweepRepo(
		sweepLicense(1, 100, now.Add(24*time.Hour)),
		sweepLicense(2, 100, now.Add(24*time.Hour)),
	)
	repo.failDecrementFor = 1

	m := NewManager(repo, &sweepAudit{}, time.Minute)
	m.now = func() time.Time { return now }

	if err := m.RunSweepOnce(); err != nil {
		t.Fatalf("sweep must not abort on a single record failure: %v", err)
	}
	if got := repo.licenses[2].RemainingMinutes; got != 99 {
		t.Fatalf("license 2 remaining = %d, want 99", got)
	}
}

func TestStartStop(t *testing.T) {
	repo := newSweepRepo()
	m := NewManager(repo, &sweepAudit{}, time.Hour)

	m.Start()
	if !m.IsRunning() {
		t.Fatalf("expected manager to be running after Start")
	}

	// Second start is a no-op.
	m.Start()

	m.Stop()
	if m.IsRunning() {
		t.Fatalf("expected manager to be stopped after Stop")
	}

	// Restart works on a fresh stop channel.
	m.Start()
	if !m.IsRunning() {
		t.Fatalf("expected manager to restart")
	}
	m.Stop()
}
