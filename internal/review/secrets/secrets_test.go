package secrets_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/internal/review/secrets"
	dErrors "fraudlens/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	a, err := secrets.Generate()
	require.NoError(t, err)
	b, err := secrets.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 40)
}

func TestHashAndVerify(t *testing.T) {
	key, err := secrets.Generate()
	require.NoError(t, err)

	hash, err := secrets.Hash(key)
	require.NoError(t, err)
	assert.NotContains(t, hash, key)

	require.NoError(t, secrets.Verify(key, hash))

	err = secrets.Verify("wrong-key", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := secrets.Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = secrets.Hash(strings.Repeat("x", 100))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
