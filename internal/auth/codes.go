package auth

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/metrics"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CodeIssuer creates ledger entries and hands their codes to the messenger
type CodeIssuer struct {
	repo      store.Repository
	tokens    *security.TokenIssuer
	messenger Messenger
	generate  func() (string, error)
	now       func() time.Time
	cfg       Config
}

// IssueAndSend supersedes any pending code of the same purpose for u. A
// failed delivery is logged and the entry stays valid so it can be resent.
func (c *CodeIssuer) IssueAndSend(ctx context.Context, u *model.User, purpose model.Purpose, remember bool) (*Pending, error) {
	code, err := c.generate()
	if err != nil {
		return nil, err
	}

	expiresAt := c.now().Add(c.cfg.CodeTTL)

	entry, err := c.repo.IssueEntry(ctx, u.ID, purpose, code, expiresAt)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.IssuePartial(u.ID, entry.ID, purpose, expiresAt, remember)
	if err != nil {
		return nil, err
	}

	metrics.CodesIssued.WithLabelValues(string(purpose)).Inc()

	subject, body := codeMessage(c.cfg.AppName, purpose, code, c.cfg.CodeTTL)
	if err := c.messenger.Send(ctx, u.Email, subject, body); err != nil {
		metrics.MailDeliveries.WithLabelValues("dropped").Inc()
		zap.L().Error("Failed to dispatch verification code",
			zap.Error(err),
			zap.String("userID", u.ID),
			zap.String("purpose", string(purpose)),
			zap.String("entryID", entry.ID))
	}

	return &Pending{
		Token:     token,
		EntryID:   entry.ID,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
	}, nil
}

// CheckResend returns ErrResendThrottled when the active entry for the pair
// was sent too recently or was already resent too often. No entry, or an
// expired one, means there is nothing to throttle.
func (c *CodeIssuer) CheckResend(ctx context.Context, userID string, purpose model.Purpose) error {
	entry, err := c.repo.FindActiveEntry(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, common.ErrEntryNotFound) {
			return nil
		}

		return fmt.Errorf("failed to look up active entry, %w", err)
	}

	now := c.now()

	// An expired code can always be replaced
	if now.After(entry.ExpiresAt) {
		return nil
	}

	if now.Sub(entry.LastSentAt) < c.cfg.ResendCooldown {
		return common.ErrResendThrottled
	}

	if entry.ResendCount >= c.cfg.MaxResends {
		return common.ErrResendThrottled
	}

	return nil
}
