package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
)

type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PreferredLanguage string     `json:"preferredLanguage"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// UserSummary is what other room members may see about a user.
type UserSummary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PreferredLanguage string    `json:"preferredLanguage"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
}

func UserToApi(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		PreferredLanguage: u.PreferredLanguage,
		ProfilePictureURL: u.ProfilePictureURL,
		LastLogin:         u.LastLogin,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func UserSummaryToApi(u *domain.User) *UserSummary {
	return &UserSummary{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PreferredLanguage: u.PreferredLanguage,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}
