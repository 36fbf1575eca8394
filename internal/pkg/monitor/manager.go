package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/keyforgehq/keyforge/app/models"
	"github.com/keyforgehq/keyforge/internal/pkg/license"
)

// DefaultSweepInterval matches the loader heartbeat cadence: both clocks tick
// in minutes.
const DefaultSweepInterval = time.Minute

// Manager runs the background decay sweep: once per tick every active license
// loses one remaining minute, and licenses past either clock are expired.
// This covers devices that are switched on but not sending heartbeats.
type Manager struct {
	repo     license.Repository
	audit    license.AuditSink
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	sweeping atomic.Bool
}

// NewManager creates a decay monitor with injected store and audit sink.
// A non-positive interval falls back to DefaultSweepInterval.
func NewManager(repo license.Repository, audit license.AuditSink, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Manager{
		repo:     repo,
		audit:    audit,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the background sweep worker.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Infof("[Decay Monitor] Starting sweep worker (interval: %s)", m.interval)

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.sweepWorker()
}

// Stop stops the background sweep worker and waits for it to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Decay Monitor] Stopping sweep worker...")

	if m.ticker != nil {
		m.ticker.Stop()
	}

	close(m.stopCh)
	m.running = false

	m.wg.Wait()
	log.Info("[Decay Monitor] Stopped")
}

// IsRunning returns whether the manager is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) sweepWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Decay Monitor] Sweep worker stopping")
			return
		case <-m.ticker.C:
			if err := m.RunSweepOnce(); err != nil {
				log.Errorf("[Decay Monitor] Sweep error: %v", err)
			}
		}
	}
}

// RunSweepOnce executes a single decay sweep. If a previous sweep is still
// running the call is skipped, not queued. Also exposed as a manual trigger
// for admin use.
func (m *Manager) RunSweepOnce() error {
	if !m.sweeping.CompareAndSwap(false, true) {
		log.Warn("[Decay Monitor] Previous sweep still running, skipping tick")
		return nil
	}
	defer m.sweeping.Store(false)

	licenses, err := m.repo.ListActiveLicenses()
	if err != nil {
		return fmt.Errorf("list active licenses: %w", err)
	}

	now := m.now()
	expired := 0
	for i := range licenses {
		l := &licenses[i]
		if err := m.decayOne(l, now); err != nil {
			// Best effort per record: log and keep sweeping.
			log.Errorf("[Decay Monitor] License %d decay failed: %v", l.ID, err)
			continue
		}
		if !l.IsActive() {
			expired++
		}
	}

	if len(licenses) > 0 {
		log.Debugf("[Decay Monitor] Swept %d active licenses, %d expired", len(licenses), expired)
	}
	return nil
}

func (m *Manager) decayOne(l *models.License, now time.Time) error {
	if l.ExpiresAt == nil || now.After(*l.ExpiresAt) {
		return m.expire(l, "wall-clock expiry reached")
	}

	updated, changed, err := m.repo.DecrementRemaining(l.ID, nil)
	if err != nil {
		return err
	}
	*l = *updated
	if !changed || updated.RemainingMinutes <= 0 {
		return m.expire(l, "remaining minutes exhausted")
	}
	return nil
}

func (m *Manager) expire(l *models.License, reason string) error {
	expired, err := m.repo.ExpireLicense(l.ID)
	if err != nil {
		return err
	}
	if expired {
		l.Status = models.LicenseStatusExpired
		if m.audit != nil {
			m.audit.Record(&l.UserID, models.AuditLicenseExpired, models.AuditSeverityInfo,
				fmt.Sprintf("license %d expired by decay sweep: %s", l.ID, reason))
		}
	} else {
		l.Status = models.LicenseStatusExpired
	}
	return nil
}
