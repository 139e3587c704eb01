package services

import (
	"context"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

func TestPrizeListAndMarkCopied(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServicePrize](env.injector)
	ctx := context.Background()

	result, err := env.draw(t).ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	require.True(t, result.Won())
	_, err = do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u2", "Other")
	require.NoError(t, err)

	prizes, err := service.ListUserPrizes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, prizes, 1)
	assert.Equal(t, result.Prize.ID, prizes[0].ID)
	assert.Equal(t, result.Prize.CouponCode, prizes[0].CouponCode)
	assert.Equal(t, env.clock.Now().Format("2006-01-02"), prizes[0].PrizeDate.String())
	assert.False(t, prizes[0].IsCopied)

	prizes, err = service.ListUserPrizes(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, prizes)

	assert.Error(t, service.MarkCopied(ctx, "u2", result.Prize.ID), "not the owner")
	assert.Error(t, service.MarkCopied(ctx, "u1", result.Prize.ID+100))
	require.NoError(t, service.MarkCopied(ctx, "u1", result.Prize.ID))

	prize, err := datastore.FindPrizeByID(ctx, env.db, result.Prize.ID)
	require.NoError(t, err)
	assert.True(t, prize.IsCopied)
}

func TestPrizeRecordUniqueCoupons(t *testing.T) {
	env := newTestEnv(t)
	service := do.MustInvoke[*ServicePrize](env.injector)
	ctx := context.Background()

	user, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)
	tier, ok := env.settings.Tiers.Get("discount_80")
	require.True(t, ok)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		prize, err := service.Record(ctx, env.db, user, tier)
		require.NoError(t, err)
		assert.False(t, seen[prize.CouponCode])
		seen[prize.CouponCode] = true
		assert.Regexp(t, `^JJM80-`, prize.CouponCode)
	}

	wins, err := service.CountUserWinsToday(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, wins)

	has, err := service.UserHasTier(ctx, user.ID, "discount_80")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = service.UserHasTier(ctx, user.ID, "second")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPrizeDuplicateCouponRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)

	prize := func() *models.Prize {
		now := env.clock.Now()
		return &models.Prize{
			UserID: user.ID, ExternalUserID: user.ExternalID, Tier: "discount_90", PrizeName: "10% Off Coupon",
			CouponCode: "JJM90-AAAA-BBBB", PrizeDate: calendar.DayOf(now, now.Location()), CreatedAt: now, ExpiresAt: now,
		}
	}
	require.NoError(t, datastore.InsertPrize(ctx, env.db, prize()))
	err = datastore.InsertPrize(ctx, env.db, prize())
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
