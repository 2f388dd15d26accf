package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
)

type InMemoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*domain.Room
	codes map[string]uuid.UUID
}

func NewInMemoryRoomRepository() *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms: make(map[uuid.UUID]*domain.Room),
		codes: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[room.Code]; ok {
		return ErrRoomCodeExists
	}

	r.rooms[room.ID] = cloneRoom(room)
	r.codes[room.Code] = room.ID
	return nil
}

func (r *InMemoryRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return cloneRoom(room), nil
}

func (r *InMemoryRoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.codes[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return cloneRoom(room), nil
}

func (r *InMemoryRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; !ok {
		return ErrRoomNotFound
	}

	r.rooms[room.ID] = cloneRoom(room)
	r.codes[room.Code] = room.ID
	return nil
}

func (r *InMemoryRoomRepository) ListActive(ctx context.Context, ids []uuid.UUID, owner uuid.UUID) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Room, 0)
	for _, room := range r.rooms {
		if !room.IsActive {
			continue
		}
		if room.OwnerID == owner || slices.Contains(ids, room.ID) {
			result = append(result, cloneRoom(room))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type InMemoryParticipantRepository struct {
	mu           sync.RWMutex
	participants map[uuid.UUID]map[uuid.UUID]*domain.Participant
}

func NewInMemoryParticipantRepository() *InMemoryParticipantRepository {
	return &InMemoryParticipantRepository{
		participants: make(map[uuid.UUID]map[uuid.UUID]*domain.Participant),
	}
}

func (r *InMemoryParticipantRepository) Create(ctx context.Context, participant *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, ok := r.participants[participant.RoomID]
	if !ok {
		byUser = make(map[uuid.UUID]*domain.Participant)
		r.participants[participant.RoomID] = byUser
	}
	if _, exists := byUser[participant.UserID]; exists {
		return ErrParticipantExists
	}

	p := *participant
	byUser[participant.UserID] = &p
	return nil
}

func (r *InMemoryParticipantRepository) CreateWithinCapacity(ctx context.Context, participant *domain.Participant, capacity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byUser := r.participants[participant.RoomID]
	if _, exists := byUser[participant.UserID]; exists {
		return ErrParticipantExists
	}
	if capacity > 0 && len(byUser) >= capacity {
		return ErrRoomAtCapacity
	}
	if byUser == nil {
		byUser = make(map[uuid.UUID]*domain.Participant)
		r.participants[participant.RoomID] = byUser
	}

	p := *participant
	byUser[participant.UserID] = &p
	return nil
}

func (r *InMemoryParticipantRepository) Get(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[roomID][userID]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	out := *p
	return &out, nil
}

func (r *InMemoryParticipantRepository) Update(ctx context.Context, participant *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[participant.RoomID][participant.UserID]; !ok {
		return ErrParticipantNotFound
	}
	p := *participant
	r.participants[participant.RoomID][participant.UserID] = &p
	return nil
}

func (r *InMemoryParticipantRepository) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, ok := r.participants[roomID]
	if !ok {
		return ErrParticipantNotFound
	}
	if _, ok := byUser[userID]; !ok {
		return ErrParticipantNotFound
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(r.participants, roomID)
	}
	return nil
}

func (r *InMemoryParticipantRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Participant, 0, len(r.participants[roomID]))
	for _, p := range r.participants[roomID] {
		out := *p
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result, nil
}

func (r *InMemoryParticipantRepository) ListRoomIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0)
	for roomID, byUser := range r.participants {
		if _, ok := byUser[userID]; ok {
			ids = append(ids, roomID)
		}
	}
	return ids, nil
}

type InMemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	emails map[string]uuid.UUID
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:  make(map[uuid.UUID]*domain.User),
		emails: make(map[string]uuid.UUID),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, ok := r.emails[email]; ok {
		return ErrUserEmailExists
	}

	u := *user
	r.users[user.ID] = &u
	r.emails[email] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	u := *user
	return &u, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *r.users[id]
	return &u, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}

	u := *user
	r.users[user.ID] = &u
	return nil
}

// InMemoryTranslationCache is a process-local cache used by tests and
// single-node development setups.
type InMemoryTranslationCache struct {
	mu      sync.Mutex
	entries map[domain.CacheKey]*domain.CacheEntry
}

func NewInMemoryTranslationCache() *InMemoryTranslationCache {
	return &InMemoryTranslationCache{
		entries: make(map[domain.CacheKey]*domain.CacheEntry),
	}
}

func (c *InMemoryTranslationCache) Lookup(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := *entry
	return &out, nil
}

func (c *InMemoryTranslationCache) Record(ctx context.Context, entry *domain.CacheEntry) (*domain.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[entry.Key]; ok {
		out := *existing
		return &out, nil
	}

	stored := *entry
	if stored.UsageCount < 1 {
		stored.UsageCount = 1
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	c.entries[entry.Key] = &stored
	out := stored
	return &out, nil
}

func (c *InMemoryTranslationCache) Touch(ctx context.Context, key domain.CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return ErrCacheMiss
	}
	entry.UsageCount++
	return nil
}

func (c *InMemoryTranslationCache) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var purged int64
	for key, entry := range c.entries {
		if entry.CreatedAt.Before(before) {
			delete(c.entries, key)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of live entries.
func (c *InMemoryTranslationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneRoom(room *domain.Room) *domain.Room {
	out := *room
	out.SupportedLanguages = slices.Clone(room.SupportedLanguages)
	return &out
}
