package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "SecurePassword123!"

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword(testPassword)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.NotContains(t, hash, testPassword)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, err := HashPassword(testPassword)
	require.NoError(t, err)
	h2, err := HashPassword(testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "same password must hash differently with a fresh salt")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)

	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", testPassword, true},
		{"wrong", "WrongPassword456!", false},
		{"case sensitive", strings.ToLower(testPassword), false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := VerifyPassword(tc.password, hash)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestVerifyPassword_Unicode(t *testing.T) {
	for _, pw := range []string{"Mabuhay_ñ_123", "パスワード123", "🔒🔑Password123"} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)

		ok, err := VerifyPassword(pw, hash)
		require.NoError(t, err)
		assert.True(t, ok, pw)
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plain-text-not-hash",
		"$invalid$format$",
		"$argon2id$v=19$m=65536",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",
	} {
		ok, err := VerifyPassword(testPassword, bad)
		assert.Error(t, err, bad)
		assert.False(t, ok, bad)
	}
}

func TestVerifyPassword_IncompatibleVersion(t *testing.T) {
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)

	old := strings.Replace(hash, "v=19", "v=16", 1)
	_, err = VerifyPassword(testPassword, old)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
