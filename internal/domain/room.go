package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	roomCodeLength         = 6
	DefaultMaxParticipants = 10
)

type RoomSettings struct {
	RecordConversation    bool `json:"record_conversation"`
	AllowJoinRequests     bool `json:"allow_join_requests"`
	AutoTranslateMessages bool `json:"auto_translate_messages"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		RecordConversation:    false,
		AllowJoinRequests:     true,
		AutoTranslateMessages: true,
	}
}

// Room is a call space shared through its short Code.
type Room struct {
	ID                 uuid.UUID
	Code               string
	QRCodeURL          string
	OwnerID            uuid.UUID
	Name               string
	SupportedLanguages []string
	IsActive           bool
	IsPrivate          bool
	MaxParticipants    int
	Settings           RoomSettings
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

// NewRoom constructs an active room with a freshly generated code.
func NewRoom(name string, owner uuid.UUID, languages []string) *Room {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &Room{
		ID:                 uuid.New(),
		Code:               GenerateRoomCode(),
		OwnerID:            owner,
		Name:               name,
		SupportedLanguages: languages,
		IsActive:           true,
		MaxParticipants:    DefaultMaxParticipants,
		Settings:           DefaultRoomSettings(),
		CreatedAt:          time.Now().UTC(),
	}
}

// IsExpired reports whether the room is past its optional expiry time.
func (r *Room) IsExpired() bool {
	if r == nil {
		return true
	}
	if r.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().UTC().After(r.ExpiresAt)
}

func (r *Room) Supports(language string) bool {
	return slices.Contains(r.SupportedLanguages, language)
}

func (r *Room) PrimaryLanguage() string {
	if len(r.SupportedLanguages) == 0 {
		return DefaultLanguage
	}
	return r.SupportedLanguages[0]
}

func GenerateRoomCode() string {
	return strings.ToUpper(uuid.New().String()[:roomCodeLength])
}

func RoomJoinURL(code string) string {
	return "verbis://room/join?code=" + code
}
