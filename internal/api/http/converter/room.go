package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/service"
)

type RoomSettingsResponse struct {
	RecordConversation    bool `json:"recordConversation"`
	AllowJoinRequests     bool `json:"allowJoinRequests"`
	AutoTranslateMessages bool `json:"autoTranslateMessages"`
}

type RoomResponse struct {
	ID                 uuid.UUID            `json:"id"`
	RoomCode           string               `json:"roomCode"`
	QRCodeURL          string               `json:"qrCodeUrl,omitempty"`
	OwnerID            uuid.UUID            `json:"ownerId"`
	Name               string               `json:"name"`
	SupportedLanguages []string             `json:"supportedLanguages"`
	IsActive           bool                 `json:"isActive"`
	IsPrivate          bool                 `json:"isPrivate"`
	MaxParticipants    int                  `json:"maxParticipants"`
	Settings           RoomSettingsResponse `json:"settings"`
	CreatedAt          time.Time            `json:"createdAt"`
	ExpiresAt          *time.Time           `json:"expiresAt,omitempty"`
}

type ParticipantResponse struct {
	ID                uuid.UUID              `json:"id"`
	RoomID            uuid.UUID              `json:"roomId"`
	UserID            uuid.UUID              `json:"userId"`
	SpeakingLanguage  string                 `json:"speakingLanguage"`
	ListeningLanguage string                 `json:"listeningLanguage"`
	JoinedAt          time.Time              `json:"joinedAt"`
	LastActive        time.Time              `json:"lastActive"`
	IsMuted           bool                   `json:"isMuted"`
	Role              domain.ParticipantRole `json:"role"`
	User              *UserSummary           `json:"user,omitempty"`
}

func RoomToApi(r *domain.Room) *RoomResponse {
	resp := &RoomResponse{
		ID:                 r.ID,
		RoomCode:           r.Code,
		QRCodeURL:          r.QRCodeURL,
		OwnerID:            r.OwnerID,
		Name:               r.Name,
		SupportedLanguages: r.SupportedLanguages,
		IsActive:           r.IsActive,
		IsPrivate:          r.IsPrivate,
		MaxParticipants:    r.MaxParticipants,
		Settings: RoomSettingsResponse{
			RecordConversation:    r.Settings.RecordConversation,
			AllowJoinRequests:     r.Settings.AllowJoinRequests,
			AutoTranslateMessages: r.Settings.AutoTranslateMessages,
		},
		CreatedAt: r.CreatedAt,
	}
	if !r.ExpiresAt.IsZero() {
		expires := r.ExpiresAt
		resp.ExpiresAt = &expires
	}
	return resp
}

func RoomsToApi(rooms []*domain.Room) []*RoomResponse {
	out := make([]*RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomToApi(r))
	}
	return out
}

func ParticipantToApi(p *domain.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:                p.ID,
		RoomID:            p.RoomID,
		UserID:            p.UserID,
		SpeakingLanguage:  p.SpeakingLanguage,
		ListeningLanguage: p.ListeningLanguage,
		JoinedAt:          p.JoinedAt,
		LastActive:        p.LastActive,
		IsMuted:           p.IsMuted,
		Role:              p.Role,
	}
}

func ParticipantDetailsToApi(details []service.ParticipantDetails) []*ParticipantResponse {
	out := make([]*ParticipantResponse, 0, len(details))
	for _, d := range details {
		resp := ParticipantToApi(d.Participant)
		if d.User != nil {
			resp.User = UserSummaryToApi(d.User)
		}
		out = append(out, resp)
	}
	return out
}
