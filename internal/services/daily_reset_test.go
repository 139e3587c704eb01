package services

import (
	"context"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckydraw/internal/models"
)

func TestDailyResetRun(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceDailyReset](env.injector)
	ctx := context.Background()
	draw := env.draw(t)
	draw.random = neverWin

	drawN(t, draw, "u1", 3)
	drawN(t, draw, "u2", 1)
	_, err := do.MustInvoke[*ServiceUser](env.injector).AddDrawChance(ctx, "u2", 2)
	require.NoError(t, err)

	// same day: nothing to reset
	require.NoError(t, service.Run(ctx))
	assert.Equal(t, 3, env.user(t, "u1").DailyDraws)

	env.clock.Add(24 * time.Hour)
	require.NoError(t, service.Run(ctx))

	for _, id := range []string{"u1", "u2"} {
		user := env.user(t, id)
		assert.Zero(t, user.DailyDraws, id)
		assert.Zero(t, user.DailyEarned, id)
		assert.Equal(t, env.clock.Now().Format("2006-01-02"), user.LastDrawDate.String(), id)
	}
	assert.Equal(t, 3, env.user(t, "u1").TotalDraws)
	assert.Equal(t, 6, env.user(t, "u2").DrawChances)

	pools := env.pools(t)
	assert.Len(t, pools, len(env.settings.Tiers.Pooled()))
	assert.Equal(t, 2*models.UnlimitedDailyQuota-2, pools["discount_90"].TotalCount)

	env.requireInvariants(t)
}

func TestDailyResetRunLocked(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceDailyReset](env.injector)
	ctx := context.Background()

	unlock, err := env.locker.TryLock(ctx, LockKeyDailyReset())
	require.NoError(t, err)
	assert.ErrorIs(t, service.Run(ctx), ErrDailyResetLock)
	assert.Empty(t, env.pools(t))

	unlock()
	require.NoError(t, service.Run(ctx))
	assert.NotEmpty(t, env.pools(t))
}
