package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, Check(hash, "s3cret-pass"))
	assert.False(t, Check(hash, "wrong"))
}

func TestTemporary(t *testing.T) {
	a, err := Temporary()
	require.NoError(t, err)
	b, err := Temporary()
	require.NoError(t, err)

	assert.Len(t, a, TemporaryLength)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.True(t, strings.ContainsRune(temporaryAlphabet, r))
	}
}
