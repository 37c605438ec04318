package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("test-secret", time.Minute, time.Hour)

	tok, err := s.CreateAccessToken("user-1", "smoker", "a@b.c")
	require.NoError(t, err)

	claims, err := s.ParseValidate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "smoker", claims.Role)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestSignerRejects(t *testing.T) {
	s := NewSigner("test-secret", time.Minute, time.Hour)
	other := NewSigner("other-secret", time.Minute, time.Hour)
	expired := NewSigner("test-secret", -time.Minute, time.Hour)

	foreign, err := other.CreateAccessToken("user-1", "smoker", "a@b.c")
	require.NoError(t, err)
	stale, err := expired.CreateAccessToken("user-1", "smoker", "a@b.c")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "expired", token: stale},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ParseValidate(tt.token)
			assert.Error(t, err)
		})
	}
}
