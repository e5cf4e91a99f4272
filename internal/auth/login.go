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
)

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// Login checks the password and either returns a session or, for accounts
// with 2FA enabled, mails a login code and returns a partial token
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.checkPassword(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		}

		return nil, err
	}

	if s.cfg.RequireVerified && !u.Verified {
		metrics.Logins.WithLabelValues("not_verified").Inc()
		return nil, common.ErrNotVerified
	}

	if u.TwofaEnabled {
		pending, err := s.codes.IssueAndSend(ctx, u, model.PurposeLogin2FA, in.Remember)
		if err != nil {
			return nil, fmt.Errorf("failed to issue login code, %w", err)
		}

		metrics.Logins.WithLabelValues("twofa_required").Inc()
		return &LoginResult{Pending: pending}, nil
	}

	session, err := s.issueSession(u.ID, u.Role, in.Remember)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	return &LoginResult{Session: session}, nil
}

// ConfirmLogin2FA completes a login started by Login
func (s *Service) ConfirmLogin2FA(ctx context.Context, partialToken, code string) (*Session, error) {
	var role string

	p, err := s.verifier.VerifyToken(ctx, partialToken, model.PurposeLogin2FA, code, func(ctx context.Context, tx store.Repository, entry *model.Verification) error {
		u, err := tx.FindUserByID(ctx, entry.UserID)
		if err != nil {
			return err
		}

		role = u.Role
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueSession(p.UserID, role, p.Remember)
}

// ResendCode replaces the code a partial token escorts with a fresh one and
// returns a new partial token. The old token stops working.
func (s *Service) ResendCode(ctx context.Context, partialToken string) (*Pending, error) {
	p, err := s.tokens.VerifyPartial(partialToken)
	if err != nil {
		return nil, err
	}

	// The entry must still be the current one, a superseded token can't
	// be used to keep reissuing
	if _, err := s.repo.GetEntry(ctx, p.EntryID, p.UserID, p.Purpose); err != nil {
		if errors.Is(err, common.ErrEntryNotFound) {
			return nil, common.ErrTokenInvalid
		}

		return nil, err
	}

	u, err := s.repo.FindUserByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrTokenInvalid
		}

		return nil, err
	}

	if err := s.codes.CheckResend(ctx, u.ID, p.Purpose); err != nil {
		return nil, err
	}

	return s.codes.IssueAndSend(ctx, u, p.Purpose, p.Remember)
}

// Authenticate resolves a full session token. Partial tokens are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*security.Identity, *model.User, error) {
	id, err := s.tokens.VerifyFull(token)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.repo.FindUserByID(ctx, id.UserID)
	if err != nil {
		return nil, nil, err
	}

	if s.cfg.RequireVerified && !u.Verified {
		return nil, nil, common.ErrNotVerified
	}

	return id, u, nil
}

// checkPassword returns ErrInvalidCredentials for both an unknown e-mail and
// a wrong password. An unknown e-mail still pays for one hash comparison.
func (s *Service) checkPassword(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrUserNotFound) {
			return nil, err
		}

		_, _ = s.hasher.VerifyPasswd(ctx, password, s.dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.VerifyPasswd(ctx, password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return u, nil
}
