package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/keyforgehq/keyforge/internal/pkg/audit"
	"github.com/keyforgehq/keyforge/internal/pkg/database"
	"github.com/keyforgehq/keyforge/internal/pkg/env"
	"github.com/keyforgehq/keyforge/internal/pkg/license"
)

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global decay monitor (singleton). The sweep interval
// is configurable via DECAY_SWEEP_INTERVAL_SECONDS, default 60.
func GetManager() *Manager {
	managerOnce.Do(func() {
		interval := DefaultSweepInterval
		if v, err := strconv.Atoi(env.GetEnv("DECAY_SWEEP_INTERVAL_SECONDS", "60")); err == nil && v > 0 {
			interval = time.Duration(v) * time.Second
		}

		db := database.GetDB()
		globalManager = NewManager(license.NewRepository(db), audit.NewRecorder(db), interval)
	})
	return globalManager
}
