package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleOwner       ParticipantRole = "owner"
	RoleModerator   ParticipantRole = "moderator"
	RoleParticipant ParticipantRole = "participant"
)

// Participant is the membership of one user in one room.
type Participant struct {
	ID                uuid.UUID       `json:"id"`
	RoomID            uuid.UUID       `json:"room_id"`
	UserID            uuid.UUID       `json:"user_id"`
	SpeakingLanguage  string          `json:"speaking_language"`
	ListeningLanguage string          `json:"listening_language"`
	JoinedAt          time.Time       `json:"joined_at"`
	LastActive        time.Time       `json:"last_active"`
	IsMuted           bool            `json:"is_muted"`
	Role              ParticipantRole `json:"role"`
}

func NewParticipant(roomID, userID uuid.UUID, speaking, listening string, role ParticipantRole) *Participant {
	now := time.Now().UTC()
	return &Participant{
		ID:                uuid.New(),
		RoomID:            roomID,
		UserID:            userID,
		SpeakingLanguage:  speaking,
		ListeningLanguage: listening,
		JoinedAt:          now,
		LastActive:        now,
		Role:              role,
	}
}

func (p *Participant) Touch() {
	p.LastActive = time.Now().UTC()
}
