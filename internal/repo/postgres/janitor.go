package postgres

import (
	"context"
	"time"

	"github.com/oakline/staffdesk/pkg/logger"
)

// StartResetJanitor prunes stale password reset rows on the given interval
// until ctx is cancelled. It blocks; run it on its own goroutine.
func StartResetJanitor(ctx context.Context, repo ResetRepo, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Error("failed to prune reset tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned stale reset tokens", "count", n)
			}
		}
	}
}
