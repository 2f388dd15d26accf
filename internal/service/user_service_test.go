package service

import (
	"context"
	"testing"
	"time"

	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/lib/logger/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() *UserService {
	svc := NewUserService(repository.NewInMemoryUserRepository(), slogdiscard.NewDiscardLogger(), "test-secret", time.Hour)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestUserService_RegisterLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newUserService()

	token, user, err := svc.Register(ctx, RegisterInput{
		Email:    " Ayse@Example.COM ",
		Password: "s3cret!!",
		Name:     "Ayşe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "ayse@example.com", user.Email)
	assert.Equal(t, "en", user.PreferredLanguage)
	assert.NotEqual(t, "s3cret!!", user.PasswordHash)

	id, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	loginToken, loggedIn, err := svc.Login(ctx, "AYSE@example.com", "s3cret!!")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
	require.NotNil(t, loggedIn.LastLogin)

	_, _, err = svc.Login(ctx, "ayse@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_RegisterErrors(t *testing.T) {
	ctx := context.Background()
	svc := newUserService()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password", Name: "Dup"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "password", Name: "Dup"})
	assert.ErrorIs(t, err, ErrConflict)

	invalidInputs := map[string]RegisterInput{
		"bad email":      {Email: "not-an-email", Password: "password", Name: "X"},
		"short password": {Email: "x@example.com", Password: "123", Name: "X"},
		"missing name":   {Email: "x@example.com", Password: "password"},
		"bad language":   {Email: "x@example.com", Password: "password", Name: "X", PreferredLanguage: "xx"},
	}
	for name, in := range invalidInputs {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newUserService()

	_, user, err := svc.Register(ctx, RegisterInput{Email: "p@example.com", Password: "password", Name: "Old"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: "New", PreferredLanguage: "ko"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "ko", updated.PreferredLanguage)

	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{PreferredLanguage: "zz"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ko", got.PreferredLanguage)
}
