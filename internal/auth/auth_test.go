package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	p := NewProvider("test-secret", 60, 4) // low cost keeps the test fast

	hash, err := p.HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, p.VerifyPassword(hash, "hunter2"))
	assert.False(t, p.VerifyPassword(hash, "wrong"))
}

func TestTokenRoundTrip(t *testing.T) {
	p := NewProvider("test-secret", 60, 4)

	token, exp, err := p.IssueToken(42, "staff")
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := p.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AdminID)
	assert.Equal(t, "staff", claims.Role)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	p := NewProvider("test-secret", 60, 4)
	other := NewProvider("other-secret", 60, 4)

	token, _, err := p.IssueToken(42, "staff")
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.VerifyToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	p := NewProvider("test-secret", -1, 4) // already expired on issue

	token, _, err := p.IssueToken(42, "staff")
	require.NoError(t, err)

	_, err = p.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
