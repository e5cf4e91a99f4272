package auth

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/validators"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// RequestPasswordReset mails a reset code if the address belongs to an
// account. The result is the same whether it does or not.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil
		}

		return err
	}

	if err := s.codes.CheckResend(ctx, u.ID, model.PurposePasswordReset); err != nil {
		if errors.Is(err, common.ErrResendThrottled) {
			zap.L().Debug("Password reset throttled", zap.String("userID", u.ID))
			return nil
		}

		return err
	}

	_, err = s.codes.IssueAndSend(ctx, u, model.PurposePasswordReset, false)
	return err
}

// ConfirmPasswordReset replaces the password when code matches the active
// reset code for email
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := validators.PasswordValidator(newPassword); err != nil {
		return err
	}

	// Hashing is slow, keep it out of the transaction. It also runs before
	// the lookup so unknown addresses take as long as known ones.
	hash, err := s.hasher.GenerateFromPassword(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return common.ErrEntryNotFound
		}

		return err
	}

	entry, err := s.repo.FindActiveEntry(ctx, u.ID, model.PurposePasswordReset)
	if err != nil {
		return err
	}

	return s.verifier.VerifyEntry(ctx, entry, code, func(ctx context.Context, tx store.Repository, entry *model.Verification) error {
		return tx.SetPasswordHash(ctx, entry.UserID, hash)
	})
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if err := validators.PasswordValidator(newPassword); err != nil {
		return err
	}

	u, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.VerifyPasswd(ctx, current, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return common.ErrWrongCurrentPassword
	}

	hash, err := s.hasher.GenerateFromPassword(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	return s.repo.SetPasswordHash(ctx, userID, hash)
}

func (s *Service) SetTwofaEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.repo.SetTwofaEnabled(ctx, userID, enabled)
}

// DeleteAccount removes the account after checking its password. The removed
// user is returned so the caller can clean up stored files.
func (s *Service) DeleteAccount(ctx context.Context, userID, password string) (*model.User, error) {
	u, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.VerifyPasswd(ctx, password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, common.ErrWrongCurrentPassword
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return nil, err
	}

	return u, nil
}
