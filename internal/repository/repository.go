package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomCodeExists      = errors.New("room code already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailExists     = errors.New("user with email already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists")
	ErrRoomAtCapacity      = errors.New("room is at capacity")
	ErrCacheMiss           = errors.New("translation cache miss")
)

// DefaultCacheRetention is how long a translation stays cached.
const DefaultCacheRetention = 30 * 24 * time.Hour

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByCode(ctx context.Context, code string) (*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	// ListActive returns active rooms that are either in ids or owned by owner,
	// newest first.
	ListActive(ctx context.Context, ids []uuid.UUID, owner uuid.UUID) ([]*domain.Room, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.Participant) error
	// CreateWithinCapacity inserts participant only while the room holds fewer
	// than capacity members. The count and the insert are atomic. A capacity
	// of zero or less means unlimited.
	CreateWithinCapacity(ctx context.Context, participant *domain.Participant, capacity int) error
	Get(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error)
	Update(ctx context.Context, participant *domain.Participant) error
	Delete(ctx context.Context, roomID, userID uuid.UUID) error
	// ListByRoom returns participants ordered by join time, earliest first.
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error)
	ListRoomIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// TranslationCache stores translations keyed by (text, source, target).
// Record never fails because another writer stored the same key first; it
// returns whichever entry survived.
type TranslationCache interface {
	Lookup(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error)
	Record(ctx context.Context, entry *domain.CacheEntry) (*domain.CacheEntry, error)
	Touch(ctx context.Context, key domain.CacheKey) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
