package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenAndParse(t *testing.T) {
	id := uuid.New()
	token, err := NewToken("secret", id, "a@b.c", time.Hour)
	require.NoError(t, err)

	got, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseRejects(t *testing.T) {
	id := uuid.New()
	expired, err := NewToken("secret", id, "a@b.c", -time.Minute)
	require.NoError(t, err)
	valid, err := NewToken("secret", id, "a@b.c", time.Hour)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"empty":        {secret: "secret", token: ""},
		"garbage":      {secret: "secret", token: "not.a.token"},
		"expired":      {secret: "secret", token: expired},
		"wrong secret": {secret: "other", token: valid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
