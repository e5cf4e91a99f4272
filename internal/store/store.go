// Package store persists users and their pending verification codes
package store

import (
	"bitwise74/auth-api/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository is everything the auth core needs from persistence. All methods
// called on the value handed to Transaction's callback run in one
// database transaction.
type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	SetVerified(ctx context.Context, userID string) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	SetTwofaEnabled(ctx context.Context, userID string, enabled bool) error
	UpdateProfile(ctx context.Context, userID string, p *ProfileUpdate) (*model.User, error)
	SetAvatarKey(ctx context.Context, userID, key string) (old string, err error)
	DeleteUser(ctx context.Context, userID string) error
	ListExpiredUsers(ctx context.Context, before time.Time) ([]model.User, error)

	IssueEntry(ctx context.Context, userID string, purpose model.Purpose, code string, expiresAt time.Time) (*model.Verification, error)
	GetEntry(ctx context.Context, entryID, userID string, purpose model.Purpose) (*model.Verification, error)
	FindActiveEntry(ctx context.Context, userID string, purpose model.Purpose) (*model.Verification, error)
	ReserveAttempt(ctx context.Context, entryID string, limit int) error
	RetireEntry(ctx context.Context, entryID string) error
	PurgeExpiredEntries(ctx context.Context, before time.Time) (int64, error)

	Transaction(ctx context.Context, fn func(tx Repository) error) error
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the clock used for created/sent timestamps
func (s *Store) WithClock(now func() time.Time) *Store {
	return &Store{db: s.db, now: now}
}

// Transaction runs fn against a Store bound to a single transaction. Nested
// calls reuse gorm's savepoint handling.
func (s *Store) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.tx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now})
	})
}
