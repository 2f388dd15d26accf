package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
)

type RoomInteractor interface {
	CreateRoom(ctx context.Context, owner uuid.UUID, in CreateRoomInput) (*domain.Room, *domain.Participant, error)
	JoinRoom(ctx context.Context, userID uuid.UUID, code, speaking, listening string) (*domain.Room, *domain.Participant, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error)
	GetRoomDetails(ctx context.Context, roomID, userID uuid.UUID) (*domain.Room, []ParticipantDetails, error)
	LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error
	GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.Room, error)
	GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error)
	ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error)
}

type UserInteractor interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*domain.User, error)
}

type TranslationInteractor interface {
	GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Languages() []domain.Language
	Model() string
}

type SpeechInteractor interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

var (
	_ RoomInteractor        = (*RoomService)(nil)
	_ UserInteractor        = (*UserService)(nil)
	_ TranslationInteractor = (*TranslationService)(nil)
	_ SpeechInteractor      = (*SpeechService)(nil)
)
