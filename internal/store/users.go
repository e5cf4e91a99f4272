package store

import (
	"bitwise74/auth-api/internal/common"
	"bitwise74/auth-api/internal/model"
	"bitwise74/auth-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProfileUpdate holds the profile fields a user wants to change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name          *string
	Age           *int
	City          *string
	Pronouns      *string
	Bio           *string
	Format        *string
	Visibility    *string
	Interests     *[]string
	Notifications map[string]bool
}

func (p *ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}

	if p == nil {
		return cols
	}

	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Age != nil {
		cols["age"] = *p.Age
	}
	if p.City != nil {
		cols["city"] = *p.City
	}
	if p.Pronouns != nil {
		cols["pronouns"] = *p.Pronouns
	}
	if p.Bio != nil {
		cols["bio"] = *p.Bio
	}
	if p.Format != nil {
		cols["format"] = *p.Format
	}
	if p.Visibility != nil {
		cols["visibility"] = *p.Visibility
	}
	if p.Interests != nil {
		cols["interests"] = model.StringSlice(*p.Interests)
	}

	return cols
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.PasswordHash == "" {
		return errors.New("password hash can't be empty")
	}

	u.Email = validators.NormalizeEmail(u.Email)
	if u.ExpiresAt != nil {
		exp := u.ExpiresAt.UTC()
		u.ExpiresAt = &exp
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	err := s.db.WithContext(ctx).Create(u).Error
	if err != nil {
		if isDuplicate(err) {
			return common.ErrDuplicateEmail
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", validators.NormalizeEmail(email)).
		First(&u).
		Error
	if err != nil {
		return nil, notFound(err, common.ErrUserNotFound)
	}

	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, notFound(err, common.ErrUserNotFound)
	}

	return &u, nil
}

// SetVerified marks the account as verified and stops the unverified
// account cleanup from removing it
func (s *Store) SetVerified(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, map[string]any{
		"verified":   true,
		"expires_at": nil,
	})
}

func (s *Store) SetPasswordHash(ctx context.Context, userID, hash string) error {
	if hash == "" {
		return errors.New("password hash can't be empty")
	}

	return s.updateUser(ctx, userID, map[string]any{"password_hash": hash})
}

func (s *Store) SetTwofaEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.updateUser(ctx, userID, map[string]any{"twofa_enabled": enabled})
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p *ProfileUpdate) (*model.User, error) {
	cols := p.columns()

	var u *model.User
	err := s.tx(ctx, func(tx *Store) error {
		if len(cols) > 0 {
			if err := tx.updateUser(ctx, userID, cols); err != nil {
				return err
			}
		}

		// gorm skips serializers in map updates
		if p != nil && p.Notifications != nil {
			err := tx.db.WithContext(ctx).
				Model(&model.User{ID: userID}).
				Select("notifications").
				Updates(&model.User{Profile: model.Profile{Notifications: p.Notifications}}).
				Error
			if err != nil {
				return fmt.Errorf("failed to update notifications, %w", err)
			}
		}

		var err error
		u, err = tx.FindUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

// SetAvatarKey stores a new avatar key and returns the previous one so the
// caller can remove the old object
func (s *Store) SetAvatarKey(ctx context.Context, userID, key string) (string, error) {
	var old string

	err := s.tx(ctx, func(tx *Store) error {
		u, err := tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}

		old = u.AvatarKey
		return tx.updateUser(ctx, userID, map[string]any{"avatar_key": key})
	})

	return old, err
}

// DeleteUser removes a user together with every verification entry it owns
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.tx(ctx, func(tx *Store) error {
		if err := tx.db.Where("user_id = ?", userID).Delete(&model.Verification{}).Error; err != nil {
			return fmt.Errorf("failed to delete verification entries, %w", err)
		}

		r := tx.db.Where("id = ?", userID).Delete(&model.User{})
		if r.Error != nil {
			return fmt.Errorf("failed to delete user, %w", r.Error)
		}

		if r.RowsAffected == 0 {
			return common.ErrUserNotFound
		}

		return nil
	})
}

// ListExpiredUsers returns unverified accounts whose verification deadline
// passed before the given time
func (s *Store) ListExpiredUsers(ctx context.Context, before time.Time) ([]model.User, error) {
	var users []model.User

	err := s.db.WithContext(ctx).
		Where("verified = ? AND expires_at IS NOT NULL AND expires_at < ?", false, before.UTC()).
		Find(&users).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired users, %w", err)
	}

	return users, nil
}

func (s *Store) updateUser(ctx context.Context, userID string, cols map[string]any) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(cols)
	if r.Error != nil {
		return fmt.Errorf("failed to update user, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return common.ErrUserNotFound
	}

	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}

	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// sqlite doesn't translate constraint errors unless asked to
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
