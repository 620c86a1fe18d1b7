package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sigil/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerify(t *testing.T) {
	t.Run("verifies a matching secret", func(t *testing.T) {
		hash, err := Hash("password123")
		require.NoError(t, err)
		assert.NotEqual(t, "password123", hash)

		assert.NoError(t, Verify("password123", hash))
	})

	t.Run("rejects a mismatched secret", func(t *testing.T) {
		hash, err := Hash("password123")
		require.NoError(t, err)

		err = Verify("wrong-password", hash)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := Hash("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
