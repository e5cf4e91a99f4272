// Package auth implements registration, password login with an optional
// e-mailed second factor, and password reset on top of a store.Repository.
package auth

import (
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"time"
)

// Messenger delivers a message to an e-mail address. Implementations should
// not block on the actual delivery.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Hasher interface {
	GenerateFromPassword(ctx context.Context, p string) (string, error)
	VerifyPasswd(ctx context.Context, p, encoded string) (bool, error)
}

type Config struct {
	AppName string

	CodeTTL     time.Duration
	MaxAttempts int

	SessionTTL  time.Duration
	RememberTTL time.Duration

	ResendCooldown time.Duration
	MaxResends     int

	// RequireVerified blocks password login until the registration code
	// was confirmed
	RequireVerified bool
	// UnverifiedTTL is how long an unverified account is kept. Zero keeps
	// it forever.
	UnverifiedTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		AppName:         "auth-api",
		CodeTTL:         10 * time.Minute,
		MaxAttempts:     5,
		SessionTTL:      24 * time.Hour,
		RememberTTL:     30 * 24 * time.Hour,
		ResendCooldown:  time.Minute,
		MaxResends:      5,
		RequireVerified: true,
		UnverifiedTTL:   30 * 24 * time.Hour,
	}
}

func (c Config) validate() error {
	switch {
	case c.CodeTTL <= 0:
		return errors.New("code ttl must be positive")
	case c.CodeTTL > 15*time.Minute:
		return errors.New("code ttl can't be longer than 15 minutes")
	case c.MaxAttempts < 1:
		return errors.New("max attempts must be at least 1")
	case c.SessionTTL <= 0 || c.RememberTTL <= 0:
		return errors.New("session ttl must be positive")
	case c.MaxResends < 0 || c.ResendCooldown < 0:
		return errors.New("resend limits can't be negative")
	}

	return nil
}

// Pending is handed to a client that still has to submit a code
type Pending struct {
	Token     string
	EntryID   string
	Purpose   model.Purpose
	ExpiresAt time.Time
}

// Session is a full session token
type Session struct {
	Token     string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// LoginResult holds exactly one of Session or Pending
type LoginResult struct {
	Session *Session
	Pending *Pending
}

func (r *LoginResult) TwofaRequired() bool {
	return r.Pending != nil
}

type Service struct {
	repo     store.Repository
	hasher   Hasher
	tokens   *security.TokenIssuer
	codes    *CodeIssuer
	verifier *Verifier
	cfg      Config
	now      func() time.Time

	// compared against when the e-mail is unknown so both login failures
	// cost the same
	dummyHash string
}

type Option func(*options)

type options struct {
	now      func() time.Time
	generate func() (string, error)
}

// WithClock replaces time.Now for every expiry decision
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCodeGenerator replaces security.GenerateCode
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(o *options) { o.generate = fn }
}

func NewService(repo store.Repository, hasher Hasher, tokens *security.TokenIssuer, messenger Messenger, cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now, generate: security.GenerateCode}
	for _, opt := range opts {
		opt(&o)
	}

	dummy, err := hasher.GenerateFromPassword(context.Background(), "timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash, %w", err)
	}

	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		codes: &CodeIssuer{
			repo:      repo,
			tokens:    tokens,
			messenger: messenger,
			generate:  o.generate,
			now:       o.now,
			cfg:       cfg,
		},
		verifier: &Verifier{
			repo:        repo,
			tokens:      tokens,
			maxAttempts: cfg.MaxAttempts,
			now:         o.now,
		},
		cfg:       cfg,
		now:       o.now,
		dummyHash: dummy,
	}, nil
}

func (s *Service) issueSession(userID, role string, remember bool) (*Session, error) {
	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}

	token, err := s.tokens.IssueFull(userID, role, ttl)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		Role:      role,
		ExpiresAt: s.now().Add(ttl),
	}, nil
}
