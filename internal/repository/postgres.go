package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewPostgresRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelRoom(room)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomCodeExists
		}
		return err
	}
	return nil
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return toDomainRoom(&room), nil
}

func (r *PostgresRoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	err := r.db.WithContext(ctx).First(&room, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return toDomainRoom(&room), nil
}

func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	roomModel := toModelRoom(room)

	updates := map[string]any{
		"name":                    roomModel.Name,
		"owner_id":                roomModel.OwnerID,
		"qr_code_url":             roomModel.QRCodeURL,
		"supported_languages":     roomModel.SupportedLanguages,
		"is_active":               roomModel.IsActive,
		"is_private":              roomModel.IsPrivate,
		"max_participants":        roomModel.MaxParticipants,
		"record_conversation":     roomModel.RecordConversation,
		"allow_join_requests":     roomModel.AllowJoinRequests,
		"auto_translate_messages": roomModel.AutoTranslateMessages,
	}
	if roomModel.ExpiresAt == nil {
		updates["expires_at"] = gorm.Expr("NULL")
	} else {
		updates["expires_at"] = roomModel.ExpiresAt
	}

	res := r.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", roomModel.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) ListActive(ctx context.Context, ids []uuid.UUID, owner uuid.UUID) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if len(ids) > 0 {
		query = query.Where(r.db.Where("id IN ?", ids).Or("owner_id = ?", owner))
	} else {
		query = query.Where("owner_id = ?", owner)
	}

	var rooms []model.Room
	if err := query.Order("created_at DESC").Find(&rooms).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Room, 0, len(rooms))
	for i := range rooms {
		result = append(result, toDomainRoom(&rooms[i]))
	}
	return result, nil
}

type PostgresParticipantRepository struct {
	db *gorm.DB
}

func NewPostgresParticipantRepository(db *gorm.DB) *PostgresParticipantRepository {
	return &PostgresParticipantRepository{db: db}
}

func (r *PostgresParticipantRepository) Create(ctx context.Context, participant *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if participant == nil {
		return errors.New("participant is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelParticipant(participant)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrParticipantExists
		}
		return err
	}
	return nil
}

// CreateWithinCapacity locks the room row so concurrent joins to the same
// room count and insert one at a time.
func (r *PostgresParticipantRepository) CreateWithinCapacity(ctx context.Context, participant *domain.Participant, capacity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if participant == nil {
		return errors.New("participant is nil")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room model.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&room, "id = ?", participant.RoomID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		if capacity > 0 {
			var count int64
			if err := tx.Model(&model.Participant{}).Where("room_id = ?", participant.RoomID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(capacity) {
				return ErrRoomAtCapacity
			}
		}

		return tx.Create(toModelParticipant(participant)).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrParticipantExists
	}
	return err
}

func (r *PostgresParticipantRepository) Get(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p model.Participant
	err := r.db.WithContext(ctx).First(&p, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return toDomainParticipant(&p), nil
}

func (r *PostgresParticipantRepository) Update(ctx context.Context, participant *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if participant == nil {
		return errors.New("participant is nil")
	}

	res := r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("id = ?", participant.ID).
		Updates(map[string]any{
			"speaking_language":  participant.SpeakingLanguage,
			"listening_language": participant.ListeningLanguage,
			"last_active":        participant.LastActive.UTC(),
			"is_muted":           participant.IsMuted,
			"role":               string(participant.Role),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresParticipantRepository) Delete(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Participant{}, "room_id = ? AND user_id = ?", roomID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresParticipantRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Participant
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("joined_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Participant, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainParticipant(&rows[i]))
	}
	return result, nil
}

func (r *PostgresParticipantRepository) ListRoomIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Participant{}).Where("user_id = ?", userID).Pluck("room_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserEmailExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", domain.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	updateData := map[string]any{
		"name":                userModel.Name,
		"preferred_language":  userModel.PreferredLanguage,
		"profile_picture_url": userModel.ProfilePictureURL,
		"is_active":           userModel.IsActive,
		"updated_at":          userModel.UpdatedAt,
	}
	if userModel.LastLogin == nil {
		updateData["last_login"] = gorm.Expr("NULL")
	} else {
		updateData["last_login"] = userModel.LastLogin
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userModel.ID).Updates(updateData)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func toModelRoom(room *domain.Room) *model.Room {
	var expiresAt *time.Time
	if !room.ExpiresAt.IsZero() {
		t := room.ExpiresAt.UTC()
		expiresAt = &t
	}

	return &model.Room{
		ID:                    room.ID,
		Code:                  room.Code,
		QRCodeURL:             room.QRCodeURL,
		OwnerID:               room.OwnerID,
		Name:                  room.Name,
		SupportedLanguages:    strings.Join(room.SupportedLanguages, ","),
		IsActive:              room.IsActive,
		IsPrivate:             room.IsPrivate,
		MaxParticipants:       room.MaxParticipants,
		RecordConversation:    room.Settings.RecordConversation,
		AllowJoinRequests:     room.Settings.AllowJoinRequests,
		AutoTranslateMessages: room.Settings.AutoTranslateMessages,
		CreatedAt:             room.CreatedAt.UTC(),
		ExpiresAt:             expiresAt,
	}
}

func toDomainRoom(room *model.Room) *domain.Room {
	var expiresAt time.Time
	if room.ExpiresAt != nil {
		expiresAt = room.ExpiresAt.UTC()
	}

	var languages []string
	if room.SupportedLanguages != "" {
		languages = strings.Split(room.SupportedLanguages, ",")
	}

	return &domain.Room{
		ID:                 room.ID,
		Code:               room.Code,
		QRCodeURL:          room.QRCodeURL,
		OwnerID:            room.OwnerID,
		Name:               room.Name,
		SupportedLanguages: languages,
		IsActive:           room.IsActive,
		IsPrivate:          room.IsPrivate,
		MaxParticipants:    room.MaxParticipants,
		Settings: domain.RoomSettings{
			RecordConversation:    room.RecordConversation,
			AllowJoinRequests:     room.AllowJoinRequests,
			AutoTranslateMessages: room.AutoTranslateMessages,
		},
		CreatedAt: room.CreatedAt.UTC(),
		ExpiresAt: expiresAt,
	}
}

func toModelParticipant(p *domain.Participant) *model.Participant {
	joinedAt := p.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	lastActive := p.LastActive
	if lastActive.IsZero() {
		lastActive = joinedAt
	}
	role := p.Role
	if role == "" {
		role = domain.RoleParticipant
	}

	return &model.Participant{
		ID:                p.ID,
		RoomID:            p.RoomID,
		UserID:            p.UserID,
		SpeakingLanguage:  p.SpeakingLanguage,
		ListeningLanguage: p.ListeningLanguage,
		JoinedAt:          joinedAt.UTC(),
		LastActive:        lastActive.UTC(),
		IsMuted:           p.IsMuted,
		Role:              string(role),
	}
}

func toDomainParticipant(p *model.Participant) *domain.Participant {
	return &domain.Participant{
		ID:                p.ID,
		RoomID:            p.RoomID,
		UserID:            p.UserID,
		SpeakingLanguage:  p.SpeakingLanguage,
		ListeningLanguage: p.ListeningLanguage,
		JoinedAt:          p.JoinedAt.UTC(),
		LastActive:        p.LastActive.UTC(),
		IsMuted:           p.IsMuted,
		Role:              domain.ParticipantRole(p.Role),
	}
}

func toModelUser(user *domain.User) *model.User {
	var lastLogin *time.Time
	if user.LastLogin != nil {
		t := user.LastLogin.UTC()
		lastLogin = &t
	}
	return &model.User{
		ID:                user.ID,
		Email:             domain.NormalizeEmail(user.Email),
		PasswordHash:      user.PasswordHash,
		Name:              user.Name,
		PreferredLanguage: user.PreferredLanguage,
		ProfilePictureURL: user.ProfilePictureURL,
		IsActive:          user.IsActive,
		LastLogin:         lastLogin,
		CreatedAt:         user.CreatedAt.UTC(),
		UpdatedAt:         user.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	var lastLogin *time.Time
	if user.LastLogin != nil {
		t := user.LastLogin.UTC()
		lastLogin = &t
	}
	return &domain.User{
		ID:                user.ID,
		Email:             user.Email,
		PasswordHash:      user.PasswordHash,
		Name:              user.Name,
		PreferredLanguage: user.PreferredLanguage,
		ProfilePictureURL: user.ProfilePictureURL,
		IsActive:          user.IsActive,
		LastLogin:         lastLogin,
		CreatedAt:         user.CreatedAt.UTC(),
		UpdatedAt:         user.UpdatedAt.UTC(),
	}
}
