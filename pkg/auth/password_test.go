package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcorp/gatehouse/pkg/auth"
)

func TestHashAndComparePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt at production cost is slow")
	}

	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.NoError(t, auth.ComparePassword(hash, "correct-horse-battery"))
	assert.Error(t, auth.ComparePassword(hash, "wrong-password"))
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Error(t, err)
}

func TestValidatePasswordPolicy(t *testing.T) {
	assert.NoError(t, auth.ValidatePasswordPolicy("12345678"))
	assert.NoError(t, auth.ValidatePasswordPolicy("a much longer passphrase"))

	assert.Error(t, auth.ValidatePasswordPolicy(""))
	assert.Error(t, auth.ValidatePasswordPolicy("short"))
	assert.Error(t, auth.ValidatePasswordPolicy("1234567"))
}
