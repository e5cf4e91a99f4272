package store

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// A concurrent issue for the same (user, purpose) can make our insert hit
// the unique index, in which case the whole supersede is retried
const issueRetries = 3

// IssueEntry replaces any entry for the (userID, purpose) pair with a new one
// carrying a fresh ID, so tokens that pointed at the old entry stop resolving.
// The resend counter carries over from the replaced entry while it was
// still unexpired.
func (s *Store) IssueEntry(ctx context.Context, userID string, purpose model.Purpose, code string, expiresAt time.Time) (*model.Verification, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("invalid purpose %q", purpose)
	}

	var (
		entry *model.Verification
		err   error
	)

	for range issueRetries {
		entry, err = s.issueEntry(ctx, userID, purpose, code, expiresAt)
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification entry, %w", err)
	}

	return entry, nil
}

func (s *Store) issueEntry(ctx context.Context, userID string, purpose model.Purpose, code string, expiresAt time.Time) (*model.Verification, error) {
	now := s.now().UTC()
	entry := &model.Verification{
		ID:         uuid.NewString(),
		UserID:     userID,
		Purpose:    purpose,
		Code:       code,
		ExpiresAt:  expiresAt.UTC(),
		LastSentAt: now,
		CreatedAt:  now,
	}

	err := s.tx(ctx, func(tx *Store) error {
		var prev model.Verification

		err := tx.db.
			Where("user_id = ? AND purpose = ?", userID, purpose).
			Limit(1).
			Find(&prev).
			Error
		if err != nil {
			return err
		}

		if prev.ID != "" {
			// An expired entry is dead, its resend budget goes with it
			if prev.ExpiresAt.After(now) {
				entry.ResendCount = prev.ResendCount + 1
			}

			if err := tx.db.Where("id = ?", prev.ID).Delete(&model.Verification{}).Error; err != nil {
				return err
			}
		}

		return tx.db.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetEntry only returns an entry when the id, owner and purpose all match
func (s *Store) GetEntry(ctx context.Context, entryID, userID string, purpose model.Purpose) (*model.Verification, error) {
	var e model.Verification

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND purpose = ?", entryID, userID, purpose).
		First(&e).
		Error
	if err != nil {
		return nil, notFound(err, common.ErrEntryNotFound)
	}

	return &e, nil
}

func (s *Store) FindActiveEntry(ctx context.Context, userID string, purpose model.Purpose) (*model.Verification, error) {
	var e model.Verification

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		First(&e).
		Error
	if err != nil {
		return nil, notFound(err, common.ErrEntryNotFound)
	}

	return &e, nil
}

// ReserveAttempt counts one submission against the entry while it is still
// below limit. The check and the increment are a single UPDATE, so concurrent
// submissions can never get more than limit comparisons between them.
func (s *Store) ReserveAttempt(ctx context.Context, entryID string, limit int) error {
	r := s.db.WithContext(ctx).
		Model(&model.Verification{}).
		Where("id = ? AND attempts < ?", entryID, limit).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if r.Error != nil {
		return fmt.Errorf("failed to reserve attempt, %w", r.Error)
	}

	if r.RowsAffected == 1 {
		return nil
	}

	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Verification{}).
		Where("id = ?", entryID).
		Count(&n).
		Error
	if err != nil {
		return fmt.Errorf("failed to look up entry, %w", err)
	}

	if n == 0 {
		return common.ErrEntryNotFound
	}

	return common.ErrTooManyAttempts
}

// RetireEntry deletes a consumed entry. Only one of several concurrent
// callers gets a nil error, the rest get ErrEntryNotFound.
func (s *Store) RetireEntry(ctx context.Context, entryID string) error {
	r := s.db.WithContext(ctx).
		Where("id = ?", entryID).
		Delete(&model.Verification{})
	if r.Error != nil {
		return fmt.Errorf("failed to retire entry, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return common.ErrEntryNotFound
	}

	return nil
}

func (s *Store) PurgeExpiredEntries(ctx context.Context, before time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("expires_at < ?", before.UTC()).
		Delete(&model.Verification{})
	if r.Error != nil {
		return 0, fmt.Errorf("failed to purge expired entries, %w", r.Error)
	}

	return r.RowsAffected, nil
}
