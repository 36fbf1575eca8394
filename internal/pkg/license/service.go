package license

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/keyforgehq/keyforge/app/models"
)

// Payment amounts may arrive with sub-unit rounding applied by the gateway.
const amountToleranceCents = 5

// Service is the license lifecycle engine. All state transitions of a license
// run through here: activation from a confirmed payment, heartbeat decay,
// device binding, expiry on read, and administrative revocation.
type Service struct {
	repo     Repository
	catalog  *Catalog
	audit    AuditSink
	notifier Notifier
	now      func() time.Time
}

// NewService creates a license service from injected collaborators.
// A nil notifier disables the post-activation notification.
func NewService(repo Repository, catalog *Catalog, audit AuditSink, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a license service from a GORM DB handle with the
// built-in plan catalog.
func NewServiceFromDB(db *gorm.DB, audit AuditSink, notifier Notifier) *Service {
	return NewService(NewRepository(db), DefaultCatalog(), audit, notifier)
}

// Catalog returns the plan catalog the service was configured with.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Status reports whether the user currently holds a valid license without
// consuming remaining time. A license whose wall clock or minute counter is
// spent is transitioned to expired before the result is served. When the
// caller supplies a fingerprint and the license is bound, binding is
// re-validated; an unbound license is not bound by a status read.
func (s *Service) Status(ctx context.Context, userID uint, fingerprint string) (StatusResult, error) {
	_ = ctx
	l, err := s.repo.GetLicenseByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusResult{}, ErrNoActiveLicense
		}
		return StatusResult{}, storeErr(err)
	}

	switch l.Status {
	case models.LicenseStatusActive:
	case models.LicenseStatusRevoked:
		return StatusResult{}, ErrLicenseRevoked
	case models.LicenseStatusExpired:
		return StatusResult{}, ErrLicenseExpired
	default:
		return StatusResult{}, ErrNoActiveLicense
	}

	if !l.HasRemainingTime(s.now()) {
		s.expire(l, "spent license observed on status read")
		return StatusResult{}, ErrLicenseExpired
	}

	if fingerprint != "" && l.IsBound() {
		if _, err := CheckBinding(l, fingerprint); err != nil {
			s.recordBindingFailure(l, fingerprint, err)
			return StatusResult{}, err
		}
	}

	return StatusResult{
		Valid:         true,
		Plan:          l.Plan,
		ExpiresAt:     l.ExpiresAt,
		TimeRemaining: Breakdown(l.RemainingMinutes),
	}, nil
}

// BindDevice locks an active license to the given fingerprint. The first
// valid fingerprint wins; re-binding the same device is an idempotent no-op.
func (s *Service) BindDevice(ctx context.Context, userID uint, fingerprint string) error {
	_ = ctx
	if err := ValidateFingerprint(fingerprint); err != nil {
		return err
	}

	l, err := s.loadActive(userID)
	if err != nil {
		return err
	}

	needsBind, err := CheckBinding(l, fingerprint)
	if err != nil {
		s.recordBindingFailure(l, fingerprint, err)
		return err
	}
	if !needsBind {
		return nil
	}

	bound, err := s.repo.BindFingerprint(l.ID, fingerprint)
	if err != nil {
		return storeErr(err)
	}
	if !bound {
		// A concurrent bind won the race; accept only the same device.
		current, err := s.repo.GetLicenseByUserID(userID)
		if err != nil {
			return storeErr(err)
		}
		if !current.IsBound() || *current.DeviceFingerprint != fingerprint {
			s.recordBindingFailure(current, fingerprint, ErrDeviceMismatch)
			return ErrDeviceMismatch
		}
	}
	return nil
}

// Heartbeat consumes one minute of remaining time after re-validating status,
// wall-clock expiry and device binding. Each successful call costs one minute;
// the engine trusts the agreed 60s calling cadence.
func (s *Service) Heartbeat(ctx context.Context, userID uint, fingerprint string) (HeartbeatResult, error) {
	_ = ctx
	if err := ValidateFingerprint(fingerprint); err != nil {
		return HeartbeatResult{}, err
	}

	l, err := s.loadActive(userID)
	if err != nil {
		return HeartbeatResult{}, err
	}

	now := s.now()
	if l.ExpiresAt == nil || now.After(*l.ExpiresAt) {
		s.expire(l, "wall-clock expiry reached on heartbeat")
		return HeartbeatResult{}, ErrLicenseExpired
	}

	needsBind, err := CheckBinding(l, fingerprint)
	if err != nil {
		s.recordBindingFailure(l, fingerprint, err)
		return HeartbeatResult{}, err
	}
	if needsBind {
		bound, err := s.repo.BindFingerprint(l.ID, fingerprint)
		if err != nil {
			return HeartbeatResult{}, storeErr(err)
		}
		if !bound {
			current, err := s.repo.GetLicenseByUserID(userID)
			if err != nil {
				return HeartbeatResult{}, storeErr(err)
			}
			if !current.IsBound() || *current.DeviceFingerprint != fingerprint {
				s.recordBindingFailure(current, fingerprint, ErrDeviceMismatch)
				return HeartbeatResult{}, ErrDeviceMismatch
			}
		}
	}

	updated, changed, err := s.repo.DecrementRemaining(l.ID, &now)
	if err != nil {
		return HeartbeatResult{}, storeErr(err)
	}
	if !changed {
		// The counter was already spent, likely by a racing monitor tick.
		s.expire(updated, "remaining minutes exhausted before heartbeat")
		return HeartbeatResult{}, ErrLicenseExpired
	}
	if updated.RemainingMinutes <= 0 {
		s.expire(updated, "remaining minutes exhausted by heartbeat")
	}

	return HeartbeatResult{
		Valid:         updated.RemainingMinutes > 0,
		TimeRemaining: Breakdown(updated.RemainingMinutes),
	}, nil
}

// Checkout creates the pending payment record for a plan purchase. The
// generated reference is the idempotency key the gateway webhook later
// confirms against.
func (s *Service) Checkout(ctx context.Context, userID uint, planID string) (*models.Payment, error) {
	_ = ctx
	spec, err := s.catalog.Get(planID)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		Reference:   uuid.NewString(),
		UserID:      userID,
		Plan:        string(spec.ID),
		AmountCents: spec.PriceCents,
		Status:      models.PaymentStatusPending,
	}
	if err := s.repo.CreatePayment(p); err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

// RecordWebhookEvent persists a gateway callback exactly once, keyed by
// provider and event ID. Deliveries without an event ID fall back to a hash
// of the payload, so distinct confirmations still deduplicate per payload
// instead of all colliding on an empty key.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return false, nil, storeErr(err)
	}
	return created, stored, nil
}

// Activate turns an approved gateway payment into an active license.
//
// The subject is always resolved from the payment row recorded at checkout,
// never from whoever calls the webhook. The approval flip is a conditional
// update, so webhook retries and concurrent deliveries converge on a single
// grant; replays return the existing license state with AlreadyProcessed set.
func (s *Service) Activate(ctx context.Context, reference string, declaredAmountCents int64, gatewayID string) (*ActivationResult, error) {
	_ = ctx
	p, err := s.repo.GetPaymentByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.record(nil, models.AuditPaymentNotFound, models.AuditSeverityWarning,
				fmt.Sprintf("activation for unknown payment reference %q", reference))
			return nil, ErrPaymentNotFound
		}
		return nil, storeErr(err)
	}

	if p.IsApproved() {
		return s.replayActivation(p)
	}

	if diff := declaredAmountCents - p.AmountCents; diff > amountToleranceCents || diff < -amountToleranceCents {
		s.record(&p.UserID, models.AuditAmountMismatch, models.AuditSeverityCritical,
			fmt.Sprintf("payment %s declared %d cents, recorded %d cents", p.Reference, declaredAmountCents, p.AmountCents))
		return nil, ErrAmountMismatch
	}

	spec, err := s.catalog.Get(p.Plan)
	if err != nil {
		s.record(&p.UserID, models.AuditWebhookRejected, models.AuditSeverityWarning,
			fmt.Sprintf("payment %s references plan %q outside the catalog", p.Reference, p.Plan))
		return nil, err
	}

	now := s.now()
	approved, err := s.repo.MarkPaymentApproved(p.Reference, gatewayID, now)
	if err != nil {
		return nil, storeErr(err)
	}
	if !approved {
		// Lost the race against a concurrent delivery of the same payment.
		current, err := s.repo.GetPaymentByReference(p.Reference)
		if err != nil {
			return nil, storeErr(err)
		}
		if current.IsApproved() {
			return s.replayActivation(current)
		}
		return nil, fmt.Errorf("payment %s is %s and cannot be approved", p.Reference, current.Status)
	}

	l, err := s.grant(p.UserID, spec, now)
	if err != nil {
		return nil, err
	}

	s.record(&p.UserID, models.AuditActivationSucceeded, models.AuditSeverityInfo,
		fmt.Sprintf("payment %s activated plan %s until %s", p.Reference, l.Plan, l.ExpiresAt.Format(time.RFC3339)))
	if s.notifier != nil {
		s.notifier.LicenseActivated(p.UserID, l.Plan, *l.ExpiresAt)
	}
	return &ActivationResult{License: l}, nil
}

// Revoke administratively disables a user's license.
func (s *Service) Revoke(ctx context.Context, userID uint, reason string) error {
	_ = ctx
	l, err := s.repo.GetLicenseByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveLicense
		}
		return storeErr(err)
	}

	if _, err := s.repo.RevokeLicense(l.ID); err != nil {
		return storeErr(err)
	}
	details := fmt.Sprintf("license %d revoked", l.ID)
	if reason != "" {
		details = fmt.Sprintf("license %d revoked: %s", l.ID, reason)
	}
	s.record(&userID, models.AuditLicenseRevoked, models.AuditSeverityWarning, details)
	return nil
}

// grant extends a license that still has live remaining time, or (re)creates
// a fresh entitlement. Extension keeps the device binding; a fresh entitlement
// starts unbound and forces a rebind on first use.
func (s *Service) grant(userID uint, spec PlanSpec, now time.Time) (*models.License, error) {
	addMinutes := TotalMinutes(spec.DurationDays)

	l, err := s.repo.GetLicenseByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	if l != nil && l.IsActive() && l.HasRemainingTime(now) {
		base := now
		if l.ExpiresAt.After(base) {
			base = *l.ExpiresAt
		}
		newExpiry := ComputeExpiry(base, spec.DurationDays)
		extended, err := s.repo.ExtendLicense(l.ID, addMinutes, newExpiry, string(spec.ID))
		if err != nil {
			return nil, storeErr(err)
		}
		if extended {
			refreshed, err := s.repo.GetLicenseByUserID(userID)
			if err != nil {
				return nil, storeErr(err)
			}
			return refreshed, nil
		}
		// The license expired between the read and the extension; fall
		// through and grant a fresh entitlement instead.
		l, err = s.repo.GetLicenseByUserID(userID)
		if err != nil {
			return nil, storeErr(err)
		}
	}

	expiresAt := ComputeExpiry(now, spec.DurationDays)
	if l != nil {
		l.Plan = string(spec.ID)
		l.Status = models.LicenseStatusActive
		l.DeviceFingerprint = nil
		l.ExpiresAt = &expiresAt
		l.RemainingMinutes = addMinutes
		l.ActivatedAt = &now
		l.LastHeartbeatAt = nil
		if err := s.repo.SaveLicense(l); err != nil {
			return nil, storeErr(err)
		}
		return l, nil
	}

	l = &models.License{
		UserID:           userID,
		Plan:             string(spec.ID),
		Status:           models.LicenseStatusActive,
		ExpiresAt:        &expiresAt,
		RemainingMinutes: addMinutes,
		ActivatedAt:      &now,
	}
	if err := s.repo.CreateLicense(l); err != nil {
		return nil, storeErr(err)
	}
	return l, nil
}

func (s *Service) replayActivation(p *models.Payment) (*ActivationResult, error) {
	l, err := s.repo.GetLicenseByUserID(p.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}
	s.record(&p.UserID, models.AuditActivationDuplicate, models.AuditSeverityInfo,
		fmt.Sprintf("payment %s already approved, returning existing state", p.Reference))
	return &ActivationResult{License: l, AlreadyProcessed: true}, nil
}

func (s *Service) loadActive(userID uint) (*models.License, error) {
	l, err := s.repo.GetLicenseByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveLicense
		}
		return nil, storeErr(err)
	}
	if !l.IsActive() {
		return nil, ErrNoActiveLicense
	}
	return l, nil
}

func (s *Service) expire(l *models.License, reason string) {
	expired, err := s.repo.ExpireLicense(l.ID)
	if err != nil {
		s.record(&l.UserID, models.AuditLicenseExpired, models.AuditSeverityWarning,
			fmt.Sprintf("license %d expiry persist failed: %v", l.ID, err))
		return
	}
	if expired {
		s.record(&l.UserID, models.AuditLicenseExpired, models.AuditSeverityInfo,
			fmt.Sprintf("license %d expired: %s", l.ID, reason))
	}
}

func (s *Service) recordBindingFailure(l *models.License, fingerprint string, err error) {
	if !errors.Is(err, ErrDeviceMismatch) {
		return
	}
	bound := ""
	if l.IsBound() {
		bound = *l.DeviceFingerprint
	}
	s.record(&l.UserID, models.AuditDeviceMismatch, models.AuditSeverityWarning,
		fmt.Sprintf("fingerprint %q rejected for license %d bound to %q", fingerprint, l.ID, bound))
}

// storeErr tags a persistence failure so handlers can distinguish store
// outages from license rule violations.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (s *Service) record(userID *uint, eventType, severity, details string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(userID, eventType, severity, details)
}
