package auth

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/validators"
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 16
)

type RegisterInput struct {
	Email    string
	Password string
	Profile  model.Profile
}

type Registration struct {
	UserID  string
	Pending *Pending
}

// Register creates an unverified account and mails it a registration code
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, err
	}

	if err := validators.PasswordValidator(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.GenerateFromPassword(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := gonanoid.Generate(idCharset, idLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	u := &model.User{
		ID:           userID,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Profile:      in.Profile,
	}

	if u.Visibility == "" {
		u.Visibility = model.VisibilityPublic
	}

	if s.cfg.UnverifiedTTL > 0 {
		exp := s.now().Add(s.cfg.UnverifiedTTL)
		u.ExpiresAt = &exp
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	pending, err := s.codes.IssueAndSend(ctx, u, model.PurposeRegistration, false)
	if err != nil {
		return nil, fmt.Errorf("failed to issue registration code, %w", err)
	}

	return &Registration{UserID: u.ID, Pending: pending}, nil
}

// ConfirmRegistration marks the account verified when code matches its
// active registration code
func (s *Service) ConfirmRegistration(ctx context.Context, email, code string) error {
	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return common.ErrEntryNotFound
		}

		return err
	}

	entry, err := s.repo.FindActiveEntry(ctx, u.ID, model.PurposeRegistration)
	if err != nil {
		return err
	}

	return s.verifier.VerifyEntry(ctx, entry, code, func(ctx context.Context, tx store.Repository, entry *model.Verification) error {
		return tx.SetVerified(ctx, entry.UserID)
	})
}

// ResendRegistration mails a fresh registration code. Unknown, already
// verified and throttled addresses get the same answer.
func (s *Service) ResendRegistration(ctx context.Context, email string) error {
	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil
		}

		return err
	}

	if u.Verified {
		return nil
	}

	if err := s.codes.CheckResend(ctx, u.ID, model.PurposeRegistration); err != nil {
		if errors.Is(err, common.ErrResendThrottled) {
			zap.L().Debug("Registration code resend throttled", zap.String("userID", u.ID))
			return nil
		}

		return err
	}

	_, err = s.codes.IssueAndSend(ctx, u, model.PurposeRegistration, false)
	return err
}
