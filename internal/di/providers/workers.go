package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/pothpath/pothpath-server/internal/logger"
)

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func() {
		deleted, err := storeHandle.DeleteExpiredSessions(ctx, time.Now())
		if err != nil {
			log.Warn("Session cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			log.Info("Expired sessions removed", "count", deleted)
		}
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Clean up immediately at startup, then hourly.
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started", "interval", "1h")

	return &SessionCleanupJob{cancel: cancel}, nil
}
