package services

import (
	"context"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
)

func TestServiceConfigDefaults(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceConfig](env.injector)
	ctx := context.Background()

	assert.Equal(t, 0.01, service.WinProbability(ctx))
	assert.Equal(t, 50, service.MaxDailyDraws(ctx))
	assert.Equal(t, 5, service.MaxUserDailyWins(ctx))
	assert.Equal(t, 50, service.MaxDailyEarn(ctx))
	assert.False(t, service.FirstPrizeEnabled(ctx))
	assert.Equal(t, "fallback", service.GetString(ctx, "missing", "fallback"))
}

func TestServiceConfigSetInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceConfig](env.injector)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, CONFIG_MAX_DAILY_DRAWS, "7"))
	assert.Equal(t, 7, service.MaxDailyDraws(ctx))

	require.NoError(t, service.Set(ctx, CONFIG_MAX_DAILY_DRAWS, "9"))
	assert.Equal(t, 9, service.MaxDailyDraws(ctx))

	require.NoError(t, service.Set(ctx, CONFIG_FIRST_PRIZE_ENABLED, "true"))
	assert.True(t, service.FirstPrizeEnabled(ctx))

	assert.Error(t, service.Set(ctx, " ", "1"))
}

func TestServiceConfigMalformedFallsBack(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceConfig](env.injector)
	ctx := context.Background()

	// written behind the service's back, so nothing is cached
	now := time.Now()
	require.NoError(t, datastore.UpsertConfig(ctx, env.db, CONFIG_WIN_PROBABILITY, "lots", now))
	require.NoError(t, datastore.UpsertConfig(ctx, env.db, CONFIG_MAX_USER_DAILY_WINS, "2.5", now))
	require.NoError(t, datastore.UpsertConfig(ctx, env.db, CONFIG_FIRST_PRIZE_ENABLED, "maybe", now))
	require.NoError(t, datastore.UpsertConfig(ctx, env.db, CONFIG_MAX_DAILY_EARN, " 12 ", now))

	assert.Equal(t, 0.01, service.WinProbability(ctx))
	assert.Equal(t, 5, service.MaxUserDailyWins(ctx))
	assert.False(t, service.FirstPrizeEnabled(ctx))
	assert.Equal(t, 12, service.MaxDailyEarn(ctx))
}

func TestServiceConfigInsertIfAbsentKeepsValue(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServiceConfig](env.injector)
	ctx := context.Background()

	require.NoError(t, service.Set(ctx, CONFIG_WIN_PROBABILITY, "0.5"))
	require.NoError(t, datastore.InsertConfigIfAbsent(ctx, env.db, &models.Config{Key: CONFIG_WIN_PROBABILITY, Value: "0.01", UpdatedAt: time.Now()}))

	config, err := datastore.GetConfigByKey(ctx, env.db, CONFIG_WIN_PROBABILITY)
	require.NoError(t, err)
	assert.Equal(t, "0.5", config.Value)
}
