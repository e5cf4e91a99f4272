package service

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/metrics"
	"bitwise74/auth-api/internal/store"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AccountCleanup deletes accounts that never confirmed their registration
// code before their deadline, together with their avatars
func AccountCleanup(ctx context.Context, repo store.Repository, avatars *Avatars, now time.Time) (int64, error) {
	users, err := repo.ListExpiredUsers(ctx, now)
	if err != nil {
		return 0, err
	}

	if len(users) == 0 {
		return 0, nil
	}

	var (
		deleted int64
		keys    []string
	)

	for _, u := range users {
		err := repo.DeleteUser(ctx, u.ID)
		if err != nil && !errors.Is(err, common.ErrUserNotFound) {
			zap.L().Error("Failed to delete expired account", zap.Error(err), zap.String("userID", u.ID))
			continue
		}

		deleted++
		if u.AvatarKey != "" {
			keys = append(keys, u.AvatarKey)
		}
	}

	if avatars != nil && len(keys) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)

		for _, key := range keys {
			g.Go(func() error {
				avatars.Delete(gctx, key)
				return nil
			})
		}

		_ = g.Wait()
	}

	metrics.CleanupRemoved.WithLabelValues("accounts").Add(float64(deleted))
	zap.L().Debug("Account cleanup finished", zap.Int64("deleted", deleted))

	return deleted, nil
}
