package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
)

// entryOnlyStock is an entry tier that is awarded on first draws but never
// has stock of its own, so later wins only come from the other tiers.
var entryOnlyStock = models.Tier{Key: "small", Kind: models.TierKindDiscount, Name: "Small", Prefix: "SM", LifetimeCap: models.Unlimited, DailyQuota: 0, Weight: 1}

func withTiers(tiers ...models.Tier) func(*config.Settings) {
	return func(s *config.Settings) {
		s.Tiers = append(models.Tiers{entryOnlyStock}, tiers...)
		s.EntryTier = entryOnlyStock.Key
	}
}

func drawN(t *testing.T, service *ServiceDraw, externalID string, n int) []models.DrawResult {
	t.Helper()
	results := make([]models.DrawResult, 0, n)
	for i := 0; i < n; i++ {
		result, err := service.ExecuteDraw(context.Background(), externalID, "Player")
		require.NoError(t, err)
		results = append(results, result)
	}
	return results
}

func resultTypes(results []models.DrawResult) []models.DrawResultType {
	out := make([]models.DrawResultType, 0, len(results))
	for _, r := range results {
		out = append(out, r.Type)
	}
	return out
}

func TestExecuteDrawFirstDrawWinsEntryTier(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	service.random = neverWin

	result, err := service.ExecuteDraw(context.Background(), "u1", "Alice")
	require.NoError(t, err)
	require.True(t, result.Won())
	assert.Equal(t, "discount_90", result.Prize.Tier)
	assert.Equal(t, "10% Off Coupon", result.Prize.Name)
	assert.Regexp(t, `^JJM90-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`, result.Prize.CouponCode)
	assert.True(t, result.Prize.ExpiresAt.Equal(env.clock.Now().AddDate(0, 1, 0)))

	user := env.user(t, "u1")
	assert.Equal(t, "Alice", user.DisplayName)
	assert.Equal(t, 4, user.DrawChances)
	assert.Equal(t, 1, user.DailyDraws)
	assert.Equal(t, 1, user.TotalDraws)

	pools := env.pools(t)
	require.Contains(t, pools, "discount_90")
	assert.Equal(t, models.UnlimitedDailyQuota-1, pools["discount_90"].Remaining)
	assert.Equal(t, 1, pools["discount_90"].WonCount)
	assert.NotContains(t, pools, "first")

	env.requireInvariants(t)
}

func TestExecuteDrawNoChance(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	service.random = neverWin

	results := drawN(t, service, "u1", 6)
	assert.Equal(t, []models.DrawResultType{
		models.DrawWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoChance,
	}, resultTypes(results))

	user := env.user(t, "u1")
	assert.Equal(t, 0, user.DrawChances)
	assert.Equal(t, 5, user.TotalDraws)
	assert.Equal(t, 5, user.DailyDraws)

	env.requireInvariants(t)
}

func TestExecuteDrawDailyLimitKeepsChance(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.MaxDailyDraws = 2 })
	service := env.draw(t)
	service.random = neverWin
	ctx := context.Background()

	results := drawN(t, service, "u1", 3)
	assert.Equal(t, []models.DrawResultType{models.DrawWin, models.DrawNoWin, models.DrawDailyLimit}, resultTypes(results))

	user := env.user(t, "u1")
	assert.Equal(t, 3, user.DrawChances)
	assert.Equal(t, 2, user.DailyDraws)

	admin := do.MustInvoke[*ServiceAdmin](env.injector)
	require.NoError(t, admin.SetConfig(ctx, testAdmin, CONFIG_MAX_DAILY_DRAWS, "3"))

	result, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	assert.Equal(t, models.DrawNoWin, result.Type)

	result, err = service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	assert.Equal(t, models.DrawDailyLimit, result.Type)

	env.clock.Add(24 * time.Hour)
	result, err = service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	assert.Equal(t, models.DrawNoWin, result.Type)

	user = env.user(t, "u1")
	assert.Equal(t, 1, user.DailyDraws)
	assert.Equal(t, 1, user.DrawChances)
	assert.Equal(t, 4, user.TotalDraws)

	env.requireInvariants(t)
}

func TestExecuteDrawNonPurchaserOnlyWinsDiscounts(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) {
		s.MaxDailyDraws = 100
		s.MaxUserDailyWins = 100
	})
	service := env.draw(t)
	service.random = alwaysWin
	ctx := context.Background()

	_, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)
	_, err = do.MustInvoke[*ServiceAdmin](env.injector).GrantChances(ctx, testAdmin, "u1", 25)
	require.NoError(t, err)

	results := drawN(t, service, "u1", 30)
	for _, result := range results {
		require.True(t, result.Won())
		tier, ok := env.settings.Tiers.Get(result.Prize.Tier)
		require.True(t, ok)
		assert.Equal(t, models.TierKindDiscount, tier.Kind, "tier %s", tier.Key)
	}

	env.requireInvariants(t)
}

func TestExecuteDrawRankedTierAtMostOncePerUser(t *testing.T) {
	gold := models.Tier{Key: "gold", Kind: models.TierKindRanked, Name: "Gold", Prefix: "GD", LifetimeCap: 10, DailyQuota: 10, Weight: 1}
	env := newTestEnv(t, withTiers(gold))
	service := env.draw(t)
	service.random = alwaysWin
	ctx := context.Background()

	_, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)
	_, err = do.MustInvoke[*ServiceAdmin](env.injector).ConfirmPurchase(ctx, testAdmin, "u1")
	require.NoError(t, err)

	results := drawN(t, service, "u1", 6)
	assert.Equal(t, []models.DrawResultType{
		models.DrawWin, models.DrawWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoWin,
	}, resultTypes(results))
	assert.Equal(t, "small", results[0].Prize.Tier)
	assert.Equal(t, "gold", results[1].Prize.Tier)

	pools := env.pools(t)
	assert.Equal(t, 9, pools["gold"].Remaining)
	assert.Equal(t, 1, pools["gold"].WonCount)

	env.requireInvariants(t)
}

func TestExecuteDrawRankedNeedsPurchase(t *testing.T) {
	gold := models.Tier{Key: "gold", Kind: models.TierKindRanked, Name: "Gold", Prefix: "GD", LifetimeCap: 10, DailyQuota: 10, Weight: 1}
	env := newTestEnv(t, withTiers(gold))
	service := env.draw(t)
	service.random = alwaysWin

	results := drawN(t, service, "u1", 3)
	assert.Equal(t, []models.DrawResultType{models.DrawWin, models.DrawNoWin, models.DrawNoWin}, resultTypes(results))
	assert.Equal(t, 10, env.pools(t)["gold"].Remaining)
}

func TestExecuteDrawUserDailyWinCap(t *testing.T) {
	env := newTestEnv(t, func(s *config.Settings) { s.MaxUserDailyWins = 2 })
	service := env.draw(t)
	service.random = alwaysWin
	ctx := context.Background()

	results := drawN(t, service, "u1", 5)
	assert.Equal(t, []models.DrawResultType{
		models.DrawWin, models.DrawWin, models.DrawNoWin, models.DrawNoWin, models.DrawNoWin,
	}, resultTypes(results))

	user := env.user(t, "u1")
	assert.Equal(t, 0, user.DrawChances)
	assert.Equal(t, 5, user.DailyDraws)

	env.clock.Add(24 * time.Hour)
	_, err := do.MustInvoke[*ServiceAdmin](env.injector).GrantChances(ctx, testAdmin, "u1", 1)
	require.NoError(t, err)

	result, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	assert.True(t, result.Won())

	env.requireInvariants(t)
}

func TestExecuteDrawTopTierToggle(t *testing.T) {
	grand := models.Tier{Key: "first", Kind: models.TierKindGrand, Name: "Grand", Prefix: "GR", LifetimeCap: 1, DailyQuota: 0, Weight: 0}
	env := newTestEnv(t, withTiers(grand))
	service := env.draw(t)
	service.random = alwaysWin
	ctx := context.Background()
	admin := do.MustInvoke[*ServiceAdmin](env.injector)

	_, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)
	_, err = admin.ConfirmPurchase(ctx, testAdmin, "u1")
	require.NoError(t, err)

	results := drawN(t, service, "u1", 2)
	assert.Equal(t, []models.DrawResultType{models.DrawWin, models.DrawNoWin}, resultTypes(results))
	assert.NotContains(t, env.pools(t), "first")

	enabled, err := admin.ToggleTopTier(ctx, testAdmin)
	require.NoError(t, err)
	assert.True(t, enabled)
	require.Contains(t, env.pools(t), "first")
	assert.Equal(t, 1, env.pools(t)["first"].Remaining)

	result, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	require.True(t, result.Won())
	assert.Equal(t, "first", result.Prize.Tier)

	enabled, err = admin.ToggleTopTier(ctx, testAdmin)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = admin.ToggleTopTier(ctx, testAdmin)
	require.NoError(t, err)
	assert.True(t, enabled)

	// re-enabling never refills a row that already exists
	pool := env.pools(t)["first"]
	assert.Equal(t, 0, pool.Remaining)
	assert.Equal(t, 1, pool.WonCount)

	env.clock.Add(24 * time.Hour)
	require.NoError(t, do.MustInvoke[*ServicePool](env.injector).EnableGrandTier(ctx))
	assert.Equal(t, 0, env.pools(t)["first"].Remaining)

	env.requireInvariants(t)
}

func TestExecuteDrawTopTierDisabledNeverAwarded(t *testing.T) {
	grand := models.Tier{Key: "first", Kind: models.TierKindGrand, Name: "Grand", Prefix: "GR", LifetimeCap: 1, DailyQuota: 0, Weight: 1000}
	env := newTestEnv(t, withTiers(grand))
	service := env.draw(t)
	service.random = alwaysWin
	ctx := context.Background()

	_, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)
	_, err = do.MustInvoke[*ServiceAdmin](env.injector).ConfirmPurchase(ctx, testAdmin, "u1")
	require.NoError(t, err)

	// stock exists, but the switch is off
	require.NoError(t, do.MustInvoke[*ServicePool](env.injector).EnableGrandTier(ctx))

	for _, result := range drawN(t, service, "u1", 5) {
		if result.Won() {
			assert.NotEqual(t, "first", result.Prize.Tier)
		}
	}
	assert.Equal(t, 1, env.pools(t)["first"].Remaining)
}

func TestExecuteDrawBusyLock(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	ctx := context.Background()

	unlock, err := env.locker.TryLock(ctx, LockKeyUserDraw("u1"))
	require.NoError(t, err)

	_, err = service.ExecuteDraw(ctx, "u1", "Player")
	assert.ErrorContains(t, err, ErrDrawInProgress.Error())

	_, err = datastore.FindUserByExternalID(ctx, env.db, "u1")
	assert.Error(t, err)

	unlock()
	result, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	assert.Equal(t, models.DrawWin, result.Type)
}

func TestExecuteDrawConcurrentSameUser(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	service.random = neverWin

	var mu sync.Mutex
	consumed := 0

	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			result, err := service.ExecuteDraw(context.Background(), "u1", "Player")
			if err != nil {
				return nil
			}
			if result.Type == models.DrawWin || result.Type == models.DrawNoWin {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	user := env.user(t, "u1")
	assert.Equal(t, consumed, user.TotalDraws)
	assert.Equal(t, env.settings.StartingChances-consumed, user.DrawChances)

	env.requireInvariants(t)
}

func TestExecuteDrawConcurrentLastUnit(t *testing.T) {
	rare := models.Tier{Key: "rare", Kind: models.TierKindDiscount, Name: "Rare", Prefix: "RR", LifetimeCap: 1, DailyQuota: 1, Weight: 1}
	env := newTestEnv(t, withTiers(rare))
	service := env.draw(t)
	service.random = alwaysWin

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	for _, id := range users {
		result, err := service.ExecuteDraw(context.Background(), id, "Player")
		require.NoError(t, err)
		require.Equal(t, "small", result.Prize.Tier)
	}

	var mu sync.Mutex
	rareWins := 0

	var g errgroup.Group
	for _, id := range users {
		id := id
		g.Go(func() error {
			result, err := service.ExecuteDraw(context.Background(), id, "Player")
			if err != nil {
				return err
			}
			if result.Won() && result.Prize.Tier == "rare" {
				mu.Lock()
				rareWins++
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, rareWins)
	pool := env.pools(t)["rare"]
	assert.Equal(t, 0, pool.Remaining)
	assert.Equal(t, 1, pool.WonCount)

	env.requireInvariants(t)
}

func TestExecuteDrawMissingUserID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.draw(t).ExecuteDraw(context.Background(), " ", "Player")
	assert.Error(t, err)
}

func TestExecuteDrawStoreFailureKeepsChanceConsumed(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	ctx := context.Background()

	service.random = neverWin
	first, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.NoError(t, err)
	require.True(t, first.Won())

	before := env.pools(t)
	_, err = env.db.ExecContext(ctx, `CREATE TRIGGER reject_prize BEFORE INSERT ON prize BEGIN SELECT RAISE(ABORT, 'prize store unavailable'); END`)
	require.NoError(t, err)

	service.random = alwaysWin
	result, err := service.ExecuteDraw(ctx, "u1", "Player")
	require.Error(t, err)
	assert.NotEqual(t, models.DrawNoWin, result.Type)
	assert.False(t, result.Won())

	user := env.user(t, "u1")
	assert.Equal(t, 2, user.TotalDraws)
	assert.Equal(t, env.settings.StartingChances-2, user.DrawChances)

	after := env.pools(t)
	for tier, pool := range before {
		assert.Equal(t, pool.Remaining, after[tier].Remaining, "tier %s", tier)
		assert.Equal(t, pool.WonCount, after[tier].WonCount, "tier %s", tier)
	}

	prizes, err := datastore.CountPrizesByUser(ctx, env.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prizes)

	env.requireInvariants(t)
}

func TestCandidates(t *testing.T) {
	env := newTestEnv(t)
	service := env.draw(t)
	ctx := context.Background()
	require.NoError(t, do.MustInvoke[*ServicePool](env.injector).EnsureTodayPool(ctx))

	user, err := do.MustInvoke[*ServiceUser](env.injector).GetOrCreate(ctx, "u1", "Player")
	require.NoError(t, err)

	candidates, err := service.Candidates(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"discount_90", "discount_80", "discount_70"}, candidates.Keys())

	user.HasPurchased = true
	candidates, err = service.Candidates(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "third", "discount_90", "discount_80", "discount_70"}, candidates.Keys())
}
