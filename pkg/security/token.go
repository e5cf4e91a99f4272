package security

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	// KindPartial proves a password check passed and escorts exactly one
	// pending verification entry
	KindPartial TokenKind = "partial"
	// KindFull is a normal session token
	KindFull TokenKind = "full"
)

var ErrNoSecret = errors.New("jwt secret can't be empty")

type Claims struct {
	jwt.RegisteredClaims
	Kind    TokenKind     `json:"kind"`
	Role    string        `json:"role,omitempty"`
	EntryID string        `json:"eid,omitempty"`
	Purpose model.Purpose `json:"pur,omitempty"`
	// Remember asks for a long session once the pending step-up completes
	Remember bool `json:"rem,omitempty"`
}

// Identity is what a verified full token tells about its holder
type Identity struct {
	UserID string
	Role   string
}

// Pending is what a verified partial token tells about the verification it escorts
type Pending struct {
	UserID    string
	EntryID   string
	Purpose   model.Purpose
	Remember  bool
	ExpiresAt time.Time
}

type TokenIssuer struct {
	secret []byte
	issuer string

	// Now is used for iat/exp claims and for validation. Tests swap it out.
	Now func() time.Time
}

func NewTokenIssuer(secret, issuer string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		Now:    time.Now,
	}, nil
}

// IssuePartial signs a token bound to a single ledger entry. The token
// expires together with the code it escorts.
func (t *TokenIssuer) IssuePartial(userID, entryID string, purpose model.Purpose, expiresAt time.Time, remember bool) (string, error) {
	if userID == "" || entryID == "" {
		return "", errors.New("partial token needs a user and an entry")
	}

	return t.sign(&Claims{
		RegisteredClaims: t.registered(userID, expiresAt),
		Kind:             KindPartial,
		EntryID:          entryID,
		Purpose:          purpose,
		Remember:         remember,
	})
}

// IssueFull signs a session token valid for ttl
func (t *TokenIssuer) IssueFull(userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("full token needs a user")
	}

	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	return t.sign(&Claims{
		RegisteredClaims: t.registered(userID, t.Now().Add(ttl)),
		Kind:             KindFull,
		Role:             role,
	})
}

// VerifyFull accepts only full tokens
func (t *TokenIssuer) VerifyFull(token string) (*Identity, error) {
	c, err := t.parse(token, KindFull)
	if err != nil {
		return nil, err
	}

	return &Identity{UserID: c.Subject, Role: c.Role}, nil
}

// VerifyPartial accepts only partial tokens
func (t *TokenIssuer) VerifyPartial(token string) (*Pending, error) {
	c, err := t.parse(token, KindPartial)
	if err != nil {
		return nil, err
	}

	if c.EntryID == "" || !c.Purpose.Valid() {
		return nil, common.ErrTokenInvalid
	}

	return &Pending{
		UserID:    c.Subject,
		EntryID:   c.EntryID,
		Purpose:   c.Purpose,
		Remember:  c.Remember,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (t *TokenIssuer) registered(userID string, exp time.Time) jwt.RegisteredClaims {
	now := t.Now()

	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    t.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func (t *TokenIssuer) sign(c *Claims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return s, nil
}

func (t *TokenIssuer) parse(token string, kind TokenKind) (*Claims, error) {
	if token == "" {
		return nil, common.ErrTokenInvalid
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}

		return nil, fmt.Errorf("%w, %w", common.ErrTokenInvalid, err)
	}

	if c.Kind != kind || c.Subject == "" {
		return nil, common.ErrTokenInvalid
	}

	return &c, nil
}
