package container

import (
	"database/sql"
	"os"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"luckydraw/internal/config"
	"luckydraw/internal/interfaces"
	"luckydraw/internal/pkg/caching"
	"luckydraw/internal/pkg/calendar"
	"luckydraw/internal/pkg/limiter"
	"luckydraw/internal/pkg/locker"
	"luckydraw/internal/services"
)

const LOCK_EXPIRY = 8 * time.Second

// New wires the production infrastructure and every service. vs holds the
// environment read by env.EnvsRequired; Bot and Authentication are left to
// the binaries that need them.
func New(vs map[string]string, settings config.Settings) (*do.Injector, error) {
	cal, err := calendar.NewInZone(settings.Timezone)
	if err != nil {
		return nil, err
	}

	injector := do.New()
	do.ProvideNamedValue(injector, "envs", vs)
	do.ProvideValue(injector, settings)
	do.ProvideValue(injector, cal)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		return openPostgres(os.Getenv("DB_DSN"), os.Getenv("DB_PASSWORD")), nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN_READONLY")
		if dsn == "" {
			return do.Invoke[*bun.DB](i)
		}
		return openPostgres(dsn, os.Getenv("DB_PASSWORD_READONLY")), nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return openRedis("REDIS_DB", false)
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return openRedis("REDIS_CACHE", false)
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		if os.Getenv("REDIS_CACHE_READONLY") == "" && os.Getenv("CLUSTER_REDIS_CACHE_READONLY") == "" {
			return openRedis("REDIS_CACHE", true)
		}
		return openRedis("REDIS_CACHE_READONLY", true)
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return openRedis("REDIS_LIMITER", false)
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return openRedis("REDIS_MUTEX", false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, true)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		rs := redsync.New(pool)
		return rs, nil
	})

	do.Provide(injector, func(i *do.Injector) (locker.Locker, error) {
		rs, err := do.Invoke[*redsync.Redsync](i)
		if err != nil {
			return nil, err
		}

		return locker.NewRedsyncLocker(rs, LOCK_EXPIRY), nil
	})

	services.Provide(injector)
	return injector, nil
}

func openPostgres(dsn, password string) *bun.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	return bun.NewDB(sqldb, pgdialect.New())
}

// openRedis reads CLUSTER_<name> first, then <name>, then REDIS_URL.
func openRedis(name string, readOnly bool) (redis.UniversalClient, error) {
	if clusterURL := os.Getenv("CLUSTER_" + name); clusterURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterURL)
		if err != nil {
			return nil, err
		}
		clusterOpts.ReadOnly = readOnly
		return redis.NewClusterClient(clusterOpts), nil
	}

	url := os.Getenv(name)
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	return db.InitRedis(&db.RedisConfig{
		URL: url,
	})
}
