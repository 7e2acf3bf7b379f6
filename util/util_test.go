package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiterCheck(t *testing.T) {
	l := Limiter{Min: -45, Max: 45}
	require.True(t, l.Check(0))
	require.True(t, l.Check(-45))
	require.True(t, l.Check(45))
	require.False(t, l.Check(45.001))
	require.False(t, l.Check(-90))
}

func TestLimiterClamp(t *testing.T) {
	l := Limiter{Min: 0, Max: 10}
	require.Equal(t, 0.0, l.Clamp(-5))
	require.Equal(t, 10.0, l.Clamp(15))
	require.Equal(t, 7.5, l.Clamp(7.5))
}
