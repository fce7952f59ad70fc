package storage

import (
	"context"
	"time"

	"github.com/dockstats/dockstats/internal/log"
)

// HealthReporter receives the outcome of each health check; err is nil when
// the backend is healthy.
type HealthReporter func(name string, err error)

// StartHealthMonitor checks a backend immediately and then once per interval
// until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, name string, checker HealthChecker, interval time.Duration, report HealthReporter) {
	go func() {
		check := func() {
			cctx, cancel := context.WithTimeout(ctx, interval/2)
			defer cancel()

			err := checker.CheckHealth(cctx)
			if err != nil {
				log.Warnf("%s health check failed: %v", name, err)
			} else {
				log.Debugf("%s health check passed", name)
			}
			report(name, err)
		}

		check()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				check()
			case <-ctx.Done():
				log.Infof("stopping %s health monitor", name)
				return
			}
		}
	}()
}
