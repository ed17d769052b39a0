package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinite(t *testing.T) {
	assert.Nil(t, Finite(math.NaN()))
	assert.Nil(t, Finite(math.Inf(1)))

	v := Finite(1.5)
	require.NotNil(t, v)
	assert.Equal(t, 1.5, *v)
}

func TestZeroIfUndefined(t *testing.T) {
	assert.Equal(t, 0.0, ZeroIfUndefined(math.NaN()))
	assert.Equal(t, 0.0, ZeroIfUndefined(math.Inf(-1)))
	assert.Equal(t, -2.0, ZeroIfUndefined(-2))
}
