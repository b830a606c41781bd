package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
	"github.com/AlibekovAA/refresh-token-service/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type ValidCounter interface {
	CountValid(ctx context.Context) (int64, error)
}

// StartRevokedSessionCleanup purges revoked-session entries whose access
// token has expired anyway. Refresh-token records are never touched here;
// only logout deletes them.
func StartRevokedSessionCleanup(ctx context.Context, repo ExpiredDeleter, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.WithFields(ctx, logger.Fields{
					"action": "revoked_session_cleanup_failed",
				}).Errorf("revoked session cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				metrics.RevokedSessionsPurged.Add(float64(deleted))
				log.Infof("revoked session cleanup: deleted %d expired entries", deleted)
			}
		}
	}
}

// StartTokenStats publishes the number of valid refresh tokens.
func StartTokenStats(ctx context.Context, repo ValidCounter, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	record := func() {
		count, err := repo.CountValid(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warnf("refresh token stats failed: %v", err)
			}
			return
		}
		metrics.RefreshTokensActive.Set(float64(count))
	}

	record()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			record()
		}
	}
}
