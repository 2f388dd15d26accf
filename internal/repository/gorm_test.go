package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/repository/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the production
// schema. The gorm repositories only use portable SQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.Participant{},
		&model.TranslationCacheEntry{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestPostgresTranslationCache_RecordLookup(t *testing.T) {
	ctx := context.Background()
	cache := NewPostgresTranslationCache(newTestDB(t))
	key := domain.CacheKey{Text: "Hello there", SourceLang: "en", TargetLang: "es"}

	_, err := cache.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	stored, err := cache.Record(ctx, domain.NewCacheEntry(key, "Hola", "gpt"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsageCount)

	got, err := cache.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Hola", got.TranslatedText)
	assert.Equal(t, "gpt", got.Model)
	assert.Equal(t, key, got.Key)
}

func TestPostgresTranslationCache_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	cache := NewPostgresTranslationCache(newTestDB(t))
	key := domain.CacheKey{Text: "Good morning", SourceLang: "en", TargetLang: "fr"}

	_, err := cache.Record(ctx, domain.NewCacheEntry(key, "Bonjour", "a"))
	require.NoError(t, err)

	second, err := cache.Record(ctx, domain.NewCacheEntry(key, "Salut", "b"))
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", second.TranslatedText)

	var count int64
	require.NoError(t, cache.db.Model(&model.TranslationCacheEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostgresTranslationCache_KeyIsExact(t *testing.T) {
	ctx := context.Background()
	cache := NewPostgresTranslationCache(newTestDB(t))

	_, err := cache.Record(ctx, domain.NewCacheEntry(domain.CacheKey{Text: "Hello", SourceLang: "en", TargetLang: "es"}, "Hola", "m"))
	require.NoError(t, err)

	for _, key := range []domain.CacheKey{
		{Text: "hello", SourceLang: "en", TargetLang: "es"},
		{Text: "Hello ", SourceLang: "en", TargetLang: "es"},
		{Text: "Hello", SourceLang: "en", TargetLang: "fr"},
		{Text: "Hello", SourceLang: "de", TargetLang: "es"},
	} {
		_, err := cache.Lookup(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss, "key %+v", key)
	}
}

func TestPostgresTranslationCache_TouchAndPurge(t *testing.T) {
	ctx := context.Background()
	cache := NewPostgresTranslationCache(newTestDB(t))

	fresh := domain.CacheKey{Text: "fresh text", SourceLang: "en", TargetLang: "es"}
	old := domain.CacheKey{Text: "old text", SourceLang: "en", TargetLang: "es"}

	_, err := cache.Record(ctx, domain.NewCacheEntry(fresh, "nuevo", "m"))
	require.NoError(t, err)
	oldEntry := domain.NewCacheEntry(old, "viejo", "m")
	oldEntry.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	_, err = cache.Record(ctx, oldEntry)
	require.NoError(t, err)

	require.NoError(t, cache.Touch(ctx, fresh))
	require.NoError(t, cache.Touch(ctx, fresh))
	got, err := cache.Lookup(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UsageCount)

	assert.ErrorIs(t, cache.Touch(ctx, domain.CacheKey{Text: "nope", SourceLang: "en", TargetLang: "es"}), ErrCacheMiss)

	purged, err := cache.PurgeExpired(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = cache.Lookup(ctx, old)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Lookup(ctx, fresh)
	assert.NoError(t, err)
}

func TestPostgresRoomRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRoomRepository(newTestDB(t))
	owner := uuid.New()

	room := domain.NewRoom("Standup", owner, []string{"en", "es"})
	require.NoError(t, repo.Create(ctx, room))

	dup := domain.NewRoom("Other", owner, nil)
	dup.Code = room.Code
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrRoomCodeExists)

	byCode, err := repo.GetByCode(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, room.ID, byCode.ID)
	assert.Equal(t, []string{"en", "es"}, byCode.SupportedLanguages)
	assert.True(t, byCode.Settings.AutoTranslateMessages)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)

	byCode.Name = "Retro"
	byCode.ExpiresAt = time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, repo.Update(ctx, byCode))

	updated, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retro", updated.Name)
	assert.True(t, updated.ExpiresAt.Equal(byCode.ExpiresAt))

	missing := domain.NewRoom("ghost", owner, nil)
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrRoomNotFound)
}

func TestPostgresRoomRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRoomRepository(newTestDB(t))
	me, other := uuid.New(), uuid.New()

	owned := domain.NewRoom("mine", me, nil)
	owned.CreatedAt = time.Now().UTC().Add(-time.Hour)
	joined := domain.NewRoom("joined", other, nil)
	unrelated := domain.NewRoom("unrelated", other, nil)
	closed := domain.NewRoom("closed", me, nil)
	closed.IsActive = false

	for _, r := range []*domain.Room{owned, joined, unrelated, closed} {
		require.NoError(t, repo.Create(ctx, r))
	}

	rooms, err := repo.ListActive(ctx, []uuid.UUID{joined.ID}, me)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, joined.ID, rooms[0].ID)
	assert.Equal(t, owned.ID, rooms[1].ID)

	rooms, err = repo.ListActive(ctx, nil, me)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, owned.ID, rooms[0].ID)
}

func TestPostgresParticipantRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewPostgresRoomRepository(db)
	repo := NewPostgresParticipantRepository(db)

	room := domain.NewRoom("call", uuid.New(), []string{"en", "es"})
	require.NoError(t, rooms.Create(ctx, room))

	first := domain.NewParticipant(room.ID, room.OwnerID, "en", "en", domain.RoleOwner)
	first.JoinedAt = time.Now().UTC().Add(-time.Minute)
	second := domain.NewParticipant(room.ID, uuid.New(), "es", "es", domain.RoleParticipant)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	again := domain.NewParticipant(room.ID, second.UserID, "es", "en", domain.RoleParticipant)
	assert.ErrorIs(t, repo.Create(ctx, again), ErrParticipantExists)

	list, err := repo.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.UserID, list[0].UserID)
	assert.Equal(t, domain.RoleOwner, list[0].Role)

	second.ListeningLanguage = "en"
	second.Role = domain.RoleOwner
	require.NoError(t, repo.Update(ctx, second))
	got, err := repo.Get(ctx, room.ID, second.UserID)
	require.NoError(t, err)
	assert.Equal(t, "en", got.ListeningLanguage)
	assert.Equal(t, domain.RoleOwner, got.Role)

	ids, err := repo.ListRoomIDs(ctx, second.UserID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{room.ID}, ids)

	require.NoError(t, repo.Delete(ctx, room.ID, second.UserID))
	assert.ErrorIs(t, repo.Delete(ctx, room.ID, second.UserID), ErrParticipantNotFound)
	_, err = repo.Get(ctx, room.ID, second.UserID)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestPostgresUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresUserRepository(newTestDB(t))

	now := time.Now().UTC()
	user := &domain.User{
		ID:                uuid.New(),
		Email:             "Ana@Example.com",
		PasswordHash:      "hash",
		Name:              "Ana",
		PreferredLanguage: "es",
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.Create(ctx, user))

	dup := *user
	dup.ID = uuid.New()
	dup.Email = "ana@example.com"
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrUserEmailExists)

	got, err := repo.GetByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Nil(t, got.LastLogin)

	login := now.Add(time.Minute)
	got.LastLogin = &login
	got.Name = "Ana María"
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", reloaded.Name)
	require.NotNil(t, reloaded.LastLogin)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresParticipantRepository_CreateWithinCapacity(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rooms := NewPostgresRoomRepository(db)
	repo := NewPostgresParticipantRepository(db)

	room := domain.NewRoom("pair", uuid.New(), nil)
	require.NoError(t, rooms.Create(ctx, room))

	owner := domain.NewParticipant(room.ID, room.OwnerID, "en", "en", domain.RoleOwner)
	require.NoError(t, repo.CreateWithinCapacity(ctx, owner, 2))
	assert.ErrorIs(t, repo.CreateWithinCapacity(ctx, owner, 2), ErrParticipantExists)

	guest := domain.NewParticipant(room.ID, uuid.New(), "es", "es", domain.RoleParticipant)
	require.NoError(t, repo.CreateWithinCapacity(ctx, guest, 2))

	late := domain.NewParticipant(room.ID, uuid.New(), "fr", "fr", domain.RoleParticipant)
	assert.ErrorIs(t, repo.CreateWithinCapacity(ctx, late, 2), ErrRoomAtCapacity)

	list, err := repo.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	orphan := domain.NewParticipant(uuid.New(), uuid.New(), "en", "en", domain.RoleParticipant)
	assert.ErrorIs(t, repo.CreateWithinCapacity(ctx, orphan, 2), ErrRoomNotFound)

	unlimited := domain.NewParticipant(room.ID, uuid.New(), "de", "de", domain.RoleParticipant)
	assert.NoError(t, repo.CreateWithinCapacity(ctx, unlimited, 0))
}
