package validation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/validation"
)

func TestStaticServiceVerdicts(t *testing.T) {
	t.Parallel()

	svc := validation.NewStaticService()
	ctx := context.Background()

	resp, err := svc.CheckForm(ctx, "tok", validation.Snapshot{"password1": "", "password2": ""})
	require.NoError(t, err)
	require.False(t, resp.Passed)
	require.Equal(t, validation.MatchEmpty, resp.Match)
	require.Zero(t, resp.Strength)

	resp, err = svc.CheckForm(ctx, "tok", validation.Snapshot{"password1": "short", "password2": "short"})
	require.NoError(t, err)
	require.False(t, resp.Passed)
	require.Contains(t, resp.Message, "too short")

	resp, err = svc.CheckForm(ctx, "tok", validation.Snapshot{"password1": "Tr0ub4dor&3", "password2": "different"})
	require.NoError(t, err)
	require.False(t, resp.Passed)
	require.Equal(t, validation.MatchNo, resp.Match)

	resp, err = svc.CheckForm(ctx, "tok", validation.Snapshot{"password1": "Tr0ub4dor&3", "password2": "Tr0ub4dor&3"})
	require.NoError(t, err)
	require.True(t, resp.Passed)
	require.Equal(t, validation.MatchOK, resp.Match)
	require.Greater(t, resp.Strength, 50)
}
