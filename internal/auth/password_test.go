package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/errs"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("samepassword")
	require.NoError(t, err)
	h2, err := HashPassword("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("samepassword", h1))
	assert.True(t, VerifyPassword("samepassword", h2))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("anything", "not-a-hash"))
	assert.False(t, VerifyPassword("anything", ""))
	assert.False(t, VerifyPassword("anything", "$argon2id$v=19$garbage"))
}

func TestValidatePasswordStrength(t *testing.T) {
	err := ValidatePasswordStrength("short")
	require.Error(t, err)
	assert.Equal(t, errs.Validation, errs.CodeOf(err))

	assert.NoError(t, ValidatePasswordStrength("longenough"))
}
