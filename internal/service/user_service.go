package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/verbis/internal/domain"
	"github.com/immxrtalbeast/verbis/internal/lib/jwt"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
	maxNameLength     = 100
)

type RegisterInput struct {
	Email             string
	Password          string
	Name              string
	PreferredLanguage string
}

type ProfileUpdate struct {
	Name              string
	PreferredLanguage string
	ProfilePictureURL string
}

type UserService struct {
	users    repository.UserRepository
	log      *slog.Logger
	secret   string
	tokenTTL time.Duration
	hashCost int
}

func NewUserService(users repository.UserRepository, log *slog.Logger, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:    users,
		log:      log,
		secret:   secret,
		tokenTTL: tokenTTL,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an account and returns a session token for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op))

	email := domain.NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", nil, invalid("email", "valid email is required")
	}
	if n := len(in.Password); n < minPasswordLength || n > maxPasswordLength {
		return "", nil, invalid("password", fmt.Sprintf("must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", nil, invalid("name", "name is required")
	}
	if in.PreferredLanguage != "" && !domain.IsSupportedLanguage(in.PreferredLanguage) {
		return "", nil, invalid("preferredLanguage", "unsupported language")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user := domain.NewUser(email, name, string(hash), in.PreferredLanguage)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			return "", nil, fmt.Errorf("%s: email already in use: %w", op, ErrConflict)
		}
		log.Error("failed to create user", sl.Err(err))
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwt.NewToken(s.secret, user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return token, user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	const op = "service.user.login"
	log := s.log.With(slog.String("op", op))

	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, invalid("", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("%s: invalid credentials: %w", op, ErrUnauthorized)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%s: account disabled: %w", op, ErrForbidden)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%s: invalid credentials: %w", op, ErrUnauthorized)
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		log.Warn("failed to record last login", sl.Err(err))
	}

	token, err := jwt.NewToken(s.secret, user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// Authenticate resolves a session token to an active user id.
func (s *UserService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	const op = "service.user.authenticate"

	userID, err := jwt.Parse(s.secret, token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return userID, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "service.user.get"

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile applies the non-empty fields of upd.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*domain.User, error) {
	const op = "service.user.updateProfile"

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(upd.Name); name != "" {
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, invalid("name", "name is too long")
		}
		user.Name = name
	}
	if upd.PreferredLanguage != "" {
		if !domain.IsSupportedLanguage(upd.PreferredLanguage) {
			return nil, invalid("preferredLanguage", "unsupported language")
		}
		user.PreferredLanguage = upd.PreferredLanguage
	}
	if upd.ProfilePictureURL != "" {
		user.ProfilePictureURL = upd.ProfilePictureURL
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
