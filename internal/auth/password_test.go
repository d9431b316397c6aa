package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/online-booking/booking-service/internal/domain"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	passwords := []string{"secret1!", "a", "pässwörd@2024", strings.Repeat("x", maxPasswordBytes)}
	for _, pw := range passwords {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.NotEmpty(t, hash)

		ok, err := h.Verify(pw, hash)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)
	}
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1!")
	require.NoError(t, err)

	ok, err := h.Verify("secret2!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1!")
	require.NoError(t, err)
	second, err := h.Hash("secret1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_CorruptHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	ok, err := h.Verify("secret1!", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrCorruptCredential)
}

func TestPasswordHasher_RejectsBadInput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.Hash(strings.Repeat("x", maxPasswordBytes+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 11, NewPasswordHasher(11).cost)
}
