package service

import (
	"bitwise74/auth-api/internal/metrics"
	"bitwise74/auth-api/internal/store"
	"context"
	"time"

	"go.uber.org/zap"
)

// LedgerCleanup deletes verification entries that expired before now. The
// verifier already treats them as dead, this only keeps the table small.
func LedgerCleanup(ctx context.Context, repo store.Repository, now time.Time) (int64, error) {
	n, err := repo.PurgeExpiredEntries(ctx, now)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		metrics.CleanupRemoved.WithLabelValues("ledger").Add(float64(n))
		zap.L().Debug("Cleaned up expired verification entries", zap.Int64("count", n))
	}

	return n, nil
}
