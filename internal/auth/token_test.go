package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

func TestGenerateAndParse(t *testing.T) {
	tm := NewTokenManager("secret", "deadline-daddy", time.Hour)

	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	id, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseRejects(t *testing.T) {
	issuer := NewTokenManager("secret", "deadline-daddy", time.Hour)
	token, err := issuer.Generate(models.User{ID: 7})
	require.NoError(t, err)

	expired := NewTokenManager("secret", "deadline-daddy", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tests := map[string]struct {
		tm    *TokenManager
		token string
	}{
		"wrong secret": {NewTokenManager("other", "deadline-daddy", time.Hour), token},
		"wrong issuer": {NewTokenManager("secret", "someone-else", time.Hour), token},
		"expired":      {expired, token},
		"garbage":      {issuer, "not.a.jwt"},
		"empty":        {issuer, ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tt.tm.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, int64(9), id)
}
