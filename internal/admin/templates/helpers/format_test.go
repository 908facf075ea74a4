package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelative(t *testing.T) {
	t.Parallel()

	require.Equal(t, "never", Relative(time.Time{}))
	require.Equal(t, "just now", Relative(time.Now().Add(-10*time.Second)))
	require.Equal(t, "5m ago", Relative(time.Now().Add(-5*time.Minute)))
	require.Equal(t, "3h ago", Relative(time.Now().Add(-3*time.Hour)))
	require.Equal(t, "2d ago", Relative(time.Now().Add(-49*time.Hour)))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", Truncate("short", 10))
	require.Equal(t, "lon...", Truncate("long enough value", 6))
	require.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestCount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1 setting", Count(1, "setting", "settings"))
	require.Equal(t, "4 settings", Count(4, "setting", "settings"))
}
