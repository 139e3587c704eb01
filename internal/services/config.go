package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/pkg/calendar"
	"luckydraw/internal/pkg/caching"
)

// ServiceConfig reads runtime parameters. Getters never fail; a missing key
// or a bad value yields the default.
type ServiceConfig struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	calendar           *calendar.Calendar
	settings           config.Settings
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	cal, err := do.Invoke[*calendar.Calendar](container)
	if err != nil {
		return nil, err
	}

	settings, err := do.Invoke[config.Settings](container)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{container, postgresDB, readonlyPostgresDB, cache, readonlyCache, cal, settings}, nil
}

// getRaw returns ok=false when the key is absent or unreadable.
func (service *ServiceConfig) getRaw(ctx context.Context, key string) (string, bool) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if err != nil {
			return "", err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_15_SECONDS, callback)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warningf("config %s: read failed, using default: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (service *ServiceConfig) GetString(ctx context.Context, key string, defaultValue string) string {
	value, ok := service.getRaw(ctx, key)
	if !ok {
		return defaultValue
	}
	return value
}

func (service *ServiceConfig) GetInt(ctx context.Context, key string, defaultValue int) int {
	value, ok := service.getRaw(ctx, key)
	if !ok {
		return defaultValue
	}

	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logger.Warningf("config %s: %q is not an integer, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func (service *ServiceConfig) GetFloat(ctx context.Context, key string, defaultValue float64) float64 {
	value, ok := service.getRaw(ctx, key)
	if !ok {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		logger.Warningf("config %s: %q is not a number, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return floatValue
}

func (service *ServiceConfig) GetBool(ctx context.Context, key string, defaultValue bool) bool {
	value, ok := service.getRaw(ctx, key)
	if !ok {
		return defaultValue
	}

	boolValue, ok := parseBool(value)
	if !ok {
		logger.Warningf("config %s: %q is not a boolean, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return boolValue
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// Set writes through to the store and drops the cached value.
func (service *ServiceConfig) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errorx.Wrap(errors.New("config key is empty"), errorx.Validation)
	}

	if err := datastore.UpsertConfig(ctx, service.postgresDB, key, value, service.calendar.Now()); err != nil {
		return err
	}

	if err := service.cache.Delete(ctx, DBKeyConfig(key)); err != nil {
		logger.Warningf("config %s: cache invalidation failed: %v", key, err)
	}
	return nil
}

func (service *ServiceConfig) WinProbability(ctx context.Context) float64 {
	return service.GetFloat(ctx, CONFIG_WIN_PROBABILITY, service.settings.WinProbability)
}

func (service *ServiceConfig) MaxDailyDraws(ctx context.Context) int {
	return service.GetInt(ctx, CONFIG_MAX_DAILY_DRAWS, service.settings.MaxDailyDraws)
}

func (service *ServiceConfig) MaxUserDailyWins(ctx context.Context) int {
	return service.GetInt(ctx, CONFIG_MAX_USER_DAILY_WINS, service.settings.MaxUserDailyWins)
}

func (service *ServiceConfig) MaxDailyEarn(ctx context.Context) int {
	return service.GetInt(ctx, CONFIG_MAX_DAILY_EARN, service.settings.MaxDailyEarn)
}

func (service *ServiceConfig) FirstPrizeEnabled(ctx context.Context) bool {
	return service.GetBool(ctx, CONFIG_FIRST_PRIZE_ENABLED, false)
}

// LoadFirstPrizeEnabled reads the primary store, skipping caches and replicas,
// for callers that write the flag back.
func (service *ServiceConfig) LoadFirstPrizeEnabled(ctx context.Context) (bool, error) {
	config, err := datastore.GetConfigByKey(ctx, service.postgresDB, CONFIG_FIRST_PRIZE_ENABLED)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	enabled, ok := parseBool(config.Value)
	if !ok {
		logger.Warningf("config %s: %q is not a boolean, treating as disabled", CONFIG_FIRST_PRIZE_ENABLED, config.Value)
	}
	return enabled, nil
}
