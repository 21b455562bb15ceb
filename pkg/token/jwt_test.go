package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("secret", 1, 7)

	tok, err := m.GenerateToken(7, "alice")
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret", 1, 7)
	other := NewJWTManager("different", 1, 7)

	tok, err := m.GenerateToken(7, "alice")
	require.NoError(t, err)

	_, err = other.VerifyToken(tok)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	m := NewJWTManager("secret", 1, 7)
	_, err := m.VerifyToken("not-a-jwt")
	assert.Error(t, err)
}

func TestSessionKeyIsStableAndOpaque(t *testing.T) {
	a := SessionKey("token-a")
	b := SessionKey("token-b")

	assert.Equal(t, a, SessionKey("token-a"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "token-a")
}
