package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestPasswordHashing_UniqueSalts(t *testing.T) {
	a, err := HashPassword("s3cret")
	require.NoError(t, err)
	b, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
