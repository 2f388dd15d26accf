package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	maxRoomNameLength   = 100
	maxCodeAttempts     = 5
	maxRoomCapacity     = 100
	qrCodeSize          = 256
	qrCodeDataURLPrefix = "data:image/png;base64,"
)

type CreateRoomInput struct {
	Name               string
	SupportedLanguages []string
	IsPrivate          bool
	MaxParticipants    int
	Settings           *domain.RoomSettings
}

// ParticipantDetails is a participant together with the public part of its
// user profile.
type ParticipantDetails struct {
	*domain.Participant
	User *domain.User
}

type RoomService struct {
	rooms        repository.RoomRepository
	participants repository.ParticipantRepository
	users        repository.UserRepository
	log          *slog.Logger
}

func NewRoomService(
	rooms repository.RoomRepository,
	participants repository.ParticipantRepository,
	users repository.UserRepository,
	log *slog.Logger,
) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		rooms:        rooms,
		participants: participants,
		users:        users,
		log:          log,
	}
}

// CreateRoom stores a new room and enrolls its owner as the first participant.
func (s *RoomService) CreateRoom(ctx context.Context, owner uuid.UUID, in CreateRoomInput) (*domain.Room, *domain.Participant, error) {
	const op = "service.room.create"
	log := s.log.With(slog.String("op", op), slog.String("owner", owner.String()))

	if owner == uuid.Nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, invalid("name", "room name is required")
	}
	if utf8.RuneCountInString(name) > maxRoomNameLength {
		return nil, nil, invalid("name", "room name is too long")
	}
	languages, err := normalizeLanguages(in.SupportedLanguages)
	if err != nil {
		return nil, nil, err
	}
	if in.MaxParticipants < 0 || in.MaxParticipants > maxRoomCapacity {
		return nil, nil, invalid("maxParticipants", fmt.Sprintf("must be between 1 and %d", maxRoomCapacity))
	}

	var room *domain.Room
	for attempt := 0; ; attempt++ {
		room = domain.NewRoom(name, owner, languages)
		room.IsPrivate = in.IsPrivate
		if in.MaxParticipants > 0 {
			room.MaxParticipants = in.MaxParticipants
		}
		if in.Settings != nil {
			room.Settings = *in.Settings
		}
		room.QRCodeURL = s.qrCode(room.Code)

		err := s.rooms.Create(ctx, room)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrRoomCodeExists) && attempt < maxCodeAttempts {
			log.Debug("room code collision, retrying", slog.String("code", room.Code))
			continue
		}
		log.Error("failed to create room", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	participant := domain.NewParticipant(room.ID, owner, room.PrimaryLanguage(), room.PrimaryLanguage(), domain.RoleOwner)
	if err := s.participants.Create(ctx, participant); err != nil {
		log.Error("failed to enroll owner", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("room created", slog.String("room_id", room.ID.String()), slog.String("code", room.Code))
	return room, participant, nil
}

// JoinRoom enrolls userID into the active room with the given code. Joining a
// room the user already belongs to refreshes its language preferences.
func (s *RoomService) JoinRoom(ctx context.Context, userID uuid.UUID, code, speaking, listening string) (*domain.Room, *domain.Participant, error) {
	const op = "service.room.join"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID.String()))

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil, invalid("roomCode", "room code is required")
	}
	for field, lang := range map[string]string{"speakingLanguage": speaking, "listeningLanguage": listening} {
		if lang != "" && !domain.IsSupportedLanguage(lang) {
			return nil, nil, invalid(field, "unsupported language")
		}
	}

	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		log.Error("failed to get room", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !room.IsActive || room.IsExpired() {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	participant, err := s.participants.Get(ctx, room.ID, userID)
	switch {
	case err == nil:
		if speaking != "" {
			participant.SpeakingLanguage = speaking
		}
		if listening != "" {
			participant.ListeningLanguage = listening
		}
		participant.Touch()
		if err := s.participants.Update(ctx, participant); err != nil {
			log.Error("failed to update participant", sl.Err(err))
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return room, participant, nil
	case !errors.Is(err, repository.ErrParticipantNotFound):
		log.Error("failed to get participant", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if speaking == "" {
		speaking = room.PrimaryLanguage()
	}
	if listening == "" {
		listening = room.PrimaryLanguage()
	}
	role := domain.RoleParticipant
	if room.OwnerID == userID {
		role = domain.RoleOwner
	}

	participant = domain.NewParticipant(room.ID, userID, speaking, listening, role)
	if err := s.participants.CreateWithinCapacity(ctx, participant, room.MaxParticipants); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomAtCapacity):
			return nil, nil, fmt.Errorf("%s: %w", op, ErrRoomFull)
		case errors.Is(err, repository.ErrParticipantExists):
			return nil, nil, fmt.Errorf("%s: %w", op, ErrConflict)
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		log.Error("failed to create participant", sl.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user joined room", slog.String("room_id", room.ID.String()))
	return room, participant, nil
}

// ListRooms returns active rooms the user participates in or owns, newest first.
func (s *RoomService) ListRooms(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error) {
	const op = "service.room.list"

	ids, err := s.participants.ListRoomIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rooms, err := s.rooms.ListActive(ctx, ids, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rooms, nil
}

func (s *RoomService) GetRoomDetails(ctx context.Context, roomID, userID uuid.UUID) (*domain.Room, []ParticipantDetails, error) {
	const op = "service.room.details"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()))

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.participants.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	isMember := room.OwnerID == userID || slices.ContainsFunc(members, func(p *domain.Participant) bool {
		return p.UserID == userID
	})
	if !isMember {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	details := make([]ParticipantDetails, 0, len(members))
	for _, p := range members {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				log.Warn("participant without user", slog.String("user_id", p.UserID.String()))
				details = append(details, ParticipantDetails{Participant: p})
				continue
			}
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		details = append(details, ParticipantDetails{Participant: p, User: user})
	}
	return room, details, nil
}

// LeaveRoom removes the membership. The room is deactivated once nobody is
// left; an owner leaving hands the room to the earliest remaining joiner.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	const op = "service.room.leave"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("user_id", userID.String()),
	)

	if err := s.participants.Delete(ctx, roomID, userID); err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	remaining, err := s.participants.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case len(remaining) == 0:
		room.IsActive = false
		log.Info("last participant left, deactivating room")
	case room.OwnerID == userID:
		heir := remaining[0]
		heir.Role = domain.RoleOwner
		if err := s.participants.Update(ctx, heir); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		room.OwnerID = heir.UserID
		log.Info("ownership transferred", slog.String("new_owner", heir.UserID.String()))
	default:
		return nil
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		log.Error("failed to update room", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	const op = "service.room.get"

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return room, nil
}

func (s *RoomService) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	const op = "service.room.listParticipants"

	members, err := s.participants.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return members, nil
}

func (s *RoomService) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error) {
	const op = "service.room.getParticipant"

	p, err := s.participants.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *RoomService) qrCode(code string) string {
	png, err := qrcode.Encode(domain.RoomJoinURL(code), qrcode.Medium, qrCodeSize)
	if err != nil {
		s.log.Warn("failed to render room qr code", slog.String("code", code), sl.Err(err))
		return ""
	}
	return qrCodeDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

func normalizeLanguages(languages []string) ([]string, error) {
	if len(languages) == 0 {
		return []string{domain.DefaultLanguage}, nil
	}
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if !domain.IsSupportedLanguage(lang) {
			return nil, invalid("supportedLanguages", fmt.Sprintf("unsupported language %q", lang))
		}
		if !slices.Contains(out, lang) {
			out = append(out, lang)
		}
	}
	return out, nil
}
