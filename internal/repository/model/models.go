package model

import (
	"time"

	"github.com/google/uuid"
)

type Room struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Code                  string        `gorm:"size:16;uniqueIndex;not null"`
	QRCodeURL             string        `gorm:"type:text"`
	OwnerID               uuid.UUID     `gorm:"type:uuid;index;not null"`
	Name                  string        `gorm:"size:255;not null"`
	SupportedLanguages    string        `gorm:"size:255;not null"`
	IsActive              bool          `gorm:"not null;index"`
	IsPrivate             bool          `gorm:"not null"`
	MaxParticipants       int           `gorm:"not null;default:10"`
	RecordConversation    bool          `gorm:"not null"`
	AllowJoinRequests     bool          `gorm:"not null"`
	AutoTranslateMessages bool          `gorm:"not null"`
	CreatedAt             time.Time     `gorm:"not null;index"`
	ExpiresAt             *time.Time    `gorm:"index"`
	Participants          []Participant `gorm:"constraint:OnDelete:CASCADE"`
}

type Participant struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_room_participants_room_user"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_room_participants_room_user;index"`
	SpeakingLanguage  string    `gorm:"size:16;not null"`
	ListeningLanguage string    `gorm:"size:16;not null"`
	JoinedAt          time.Time `gorm:"not null;index"`
	LastActive        time.Time `gorm:"not null"`
	IsMuted           bool      `gorm:"not null"`
	Role              string    `gorm:"size:32;not null"`
}

func (Participant) TableName() string {
	return "room_participants"
}

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash      string    `gorm:"size:255;not null"`
	Name              string    `gorm:"size:255;not null"`
	PreferredLanguage string    `gorm:"size:16;not null;default:'en'"`
	ProfilePictureURL string    `gorm:"type:text"`
	IsActive          bool      `gorm:"not null"`
	LastLogin         *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

type TranslationCacheEntry struct {
	ID               uint      `gorm:"primaryKey"`
	TextHash         string    `gorm:"size:64;not null;uniqueIndex:idx_translation_cache_key"`
	OriginalText     string    `gorm:"type:text;not null"`
	OriginalLanguage string    `gorm:"size:16;not null;uniqueIndex:idx_translation_cache_key"`
	TargetLanguage   string    `gorm:"size:16;not null;uniqueIndex:idx_translation_cache_key"`
	TranslatedText   string    `gorm:"type:text;not null"`
	TranslationModel string    `gorm:"size:64;not null"`
	UsageCount       int64     `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null;index"`
}

func (TranslationCacheEntry) TableName() string {
	return "translation_cache_entries"
}
