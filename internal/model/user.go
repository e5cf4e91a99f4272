// Package model defines database models
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type User struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Verified     bool       `gorm:"default:false" json:"verified"`
	TwofaEnabled bool       `gorm:"default:false" json:"twofa_enabled"`
	Role         string     `gorm:"default:user;not null" json:"role"`
	ExpiresAt    *time.Time `json:"-"` // Unverified accounts get removed after this

	Profile

	Verifications []Verification `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Profile is the user editable part of an account
type Profile struct {
	Name          string          `json:"name"`
	Age           *int            `json:"age,omitempty"`
	City          string          `json:"city"`
	Pronouns      string          `json:"pronouns"`
	Bio           string          `json:"bio"`
	Format        string          `json:"format"`
	Visibility    string          `gorm:"default:public" json:"visibility"`
	Interests     StringSlice     `json:"interests"`
	Notifications map[string]bool `gorm:"serializer:json" json:"notifications"`
	AvatarKey     string          `json:"avatar_key,omitempty"`
}

// PublicUser is what other users get to see
type PublicUser struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	City      string      `json:"city"`
	Pronouns  string      `json:"pronouns"`
	Bio       string      `json:"bio"`
	Format    string      `json:"format"`
	Interests StringSlice `json:"interests"`
	AvatarKey string      `json:"avatar_key,omitempty"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		City:      u.City,
		Pronouns:  u.Pronouns,
		Bio:       u.Bio,
		Format:    u.Format,
		Interests: u.Interests,
		AvatarKey: u.AvatarKey,
	}
}
