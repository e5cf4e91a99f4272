package model

import "time"

type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposeLogin2FA      Purpose = "login_2fa"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegistration, PurposeLogin2FA, PurposePasswordReset:
		return true
	}

	return false
}

// Verification is a pending one-time code. There is at most one row per
// (user_id, purpose) pair, issuing a new code replaces the old row.
type Verification struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_verification_user_purpose"`
	Purpose     Purpose   `gorm:"not null;uniqueIndex:idx_verification_user_purpose"`
	Code        string    `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	Attempts    int       `gorm:"not null;default:0"`
	ResendCount int       `gorm:"not null;default:0"`
	LastSentAt  time.Time
	CreatedAt   time.Time
}
