package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/caching"
	"luckydraw/internal/pkg/calendar"
	"luckydraw/internal/pkg/locker"
)

const testAdmin = "admin-1"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	injector *do.Injector
	db       *bun.DB
	clock    *testClock
	locker   *locker.LocalLocker
	settings config.Settings
}

func newTestEnv(t *testing.T, mutate ...func(*config.Settings)) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, datastore.CreateTableConfig(ctx, db))
	require.NoError(t, datastore.CreateTableUser(ctx, db))
	require.NoError(t, datastore.CreateTableDailyPrizePool(ctx, db))
	require.NoError(t, datastore.CreateTablePrize(ctx, db))
	require.NoError(t, datastore.CreateTableWork(ctx, db))

	settings := config.Default()
	settings.AdminIDs = []string{testAdmin}
	settings.WebDomain = "https://draw.example.com"
	for _, m := range mutate {
		m(&settings)
	}
	require.NoError(t, settings.Validate())

	loc, err := time.LoadLocation(settings.Timezone)
	require.NoError(t, err)
	clock := &testClock{now: time.Date(2024, time.May, 15, 12, 0, 0, 0, loc)}
	cache := caching.NewCacheLocal(1000, time.Minute)
	lock := locker.NewLocalLocker()

	injector := do.New()
	do.ProvideValue(injector, db)
	do.ProvideNamedValue(injector, "db-readonly", db)
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[caching.ReadOnlyCache](injector, cache)
	do.ProvideValue[locker.Locker](injector, lock)
	do.ProvideValue(injector, settings)
	do.ProvideValue(injector, calendar.New(loc, clock.Now))
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", nil)
	Provide(injector)

	return &testEnv{injector, db, clock, lock, settings}
}

func (env *testEnv) draw(t *testing.T) *ServiceDraw {
	t.Helper()
	service := do.MustInvoke[*ServiceDraw](env.injector)
	return service
}

func (env *testEnv) user(t *testing.T, externalID string) *models.User {
	t.Helper()
	user, err := datastore.FindUserByExternalID(context.Background(), env.db, externalID)
	require.NoError(t, err)
	return user
}

func (env *testEnv) pools(t *testing.T) map[string]*models.DailyPrizePool {
	t.Helper()
	pools, err := do.MustInvoke[*ServicePool](env.injector).GetTodayPoolStatus(context.Background())
	require.NoError(t, err)

	out := make(map[string]*models.DailyPrizePool, len(pools))
	for _, pool := range pools {
		out[pool.Tier] = pool
	}
	return out
}

// requireInvariants checks the ledger rules that must hold after any sequence of operations.
func (env *testEnv) requireInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	var pools []*models.DailyPrizePool
	require.NoError(t, env.db.NewSelect().Model(&pools).Scan(ctx))
	for _, pool := range pools {
		require.GreaterOrEqual(t, pool.Remaining, 0, "pool %s %s", pool.PrizeDate, pool.Tier)
		require.Equal(t, pool.TotalCount, pool.Remaining+pool.WonCount, "pool %s %s", pool.PrizeDate, pool.Tier)
	}

	var users []*models.User
	require.NoError(t, env.db.NewSelect().Model(&users).Scan(ctx))
	for _, user := range users {
		require.GreaterOrEqual(t, user.DrawChances, 0, "user %s", user.ExternalID)
	}

	for _, tier := range env.settings.Tiers {
		if !tier.HasLifetimeCap() {
			continue
		}
		awarded, err := datastore.CountPrizesByTier(ctx, env.db, tier.Key)
		require.NoError(t, err)
		require.LessOrEqual(t, awarded, tier.LifetimeCap, "tier %s", tier.Key)
	}
}

func alwaysWin() float64 { return 0 }

func neverWin() float64 { return 0.999999 }
