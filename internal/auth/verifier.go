package auth

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/metrics"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/security"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SideEffect runs in the same transaction that retires the entry. If it
// fails the entry is left in place.
type SideEffect func(ctx context.Context, tx store.Repository, entry *model.Verification) error

// Verifier checks submitted codes against the ledger. Checks run in a fixed
// order: expiry, attempt budget, code. Only the attempt counter changes on
// failure.
type Verifier struct {
	repo        store.Repository
	tokens      *security.TokenIssuer
	maxAttempts int
	now         func() time.Time
}

// VerifyToken resolves the entry a partial token points at and checks code
// against it
func (v *Verifier) VerifyToken(ctx context.Context, token string, purpose model.Purpose, code string, effect SideEffect) (*security.Pending, error) {
	p, err := v.tokens.VerifyPartial(token)
	if err != nil {
		observe(purpose, err)
		return nil, err
	}

	if p.Purpose != purpose {
		observe(purpose, common.ErrTokenInvalid)
		return nil, common.ErrTokenInvalid
	}

	entry, err := v.repo.GetEntry(ctx, p.EntryID, p.UserID, purpose)
	if err != nil {
		observe(purpose, err)
		return nil, err
	}

	if err := v.VerifyEntry(ctx, entry, code, effect); err != nil {
		return nil, err
	}

	return p, nil
}

// VerifyEntry checks code against an entry that was already looked up
func (v *Verifier) VerifyEntry(ctx context.Context, entry *model.Verification, code string, effect SideEffect) error {
	err := v.verifyEntry(ctx, entry, code, effect)
	observe(entry.Purpose, err)

	return err
}

func (v *Verifier) verifyEntry(ctx context.Context, entry *model.Verification, code string, effect SideEffect) error {
	if v.now().After(entry.ExpiresAt) {
		return common.ErrCodeExpired
	}

	// Every submission spends an attempt before it is compared. The entry
	// snapshot can be stale when requests race, the reservation is not.
	if err := v.repo.ReserveAttempt(ctx, entry.ID, v.maxAttempts); err != nil {
		if !errors.Is(err, common.ErrEntryNotFound) && !errors.Is(err, common.ErrTooManyAttempts) {
			zap.L().Error("Failed to reserve attempt", zap.Error(err), zap.String("entryID", entry.ID))
		}

		return err
	}

	if !security.CompareCode(code, entry.Code) {
		return common.ErrCodeIncorrect
	}

	return v.repo.Transaction(ctx, func(tx store.Repository) error {
		if err := tx.RetireEntry(ctx, entry.ID); err != nil {
			return err
		}

		if effect == nil {
			return nil
		}

		return effect(ctx, tx, entry)
	})
}

func observe(purpose model.Purpose, err error) {
	result := "ok"

	switch {
	case err == nil:
	case errors.Is(err, common.ErrEntryNotFound):
		result = "not_found"
	case errors.Is(err, common.ErrCodeExpired):
		result = "expired"
	case errors.Is(err, common.ErrTooManyAttempts):
		result = "too_many_attempts"
	case errors.Is(err, common.ErrCodeIncorrect):
		result = "incorrect"
	case errors.Is(err, common.ErrTokenInvalid), errors.Is(err, common.ErrTokenExpired):
		result = "token_invalid"
	default:
		result = "error"
	}

	metrics.Verifications.WithLabelValues(string(purpose), result).Inc()
}
