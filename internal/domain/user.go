package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that can own and join rooms.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Name              string     `json:"name"`
	PreferredLanguage string     `json:"preferred_language"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	IsActive          bool       `json:"is_active"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

const DefaultLanguage = "en"

func NewUser(email, name, passwordHash, preferredLanguage string) *User {
	now := time.Now().UTC()
	if preferredLanguage == "" {
		preferredLanguage = DefaultLanguage
	}
	return &User{
		ID:                uuid.New(),
		Email:             NormalizeEmail(email),
		PasswordHash:      passwordHash,
		Name:              name,
		PreferredLanguage: preferredLanguage,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
