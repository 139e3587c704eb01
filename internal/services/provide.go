package services

import (
	"github.com/samber/do"
)

// Provide registers every service constructor. The caller supplies the
// infrastructure: *bun.DB (default and "db-readonly"), caching.Cache,
// caching.ReadOnlyCache, locker.Locker, config.Settings, *calendar.Calendar
// and the "redis-db" client.
func Provide(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceUser, error) {
		return NewServiceUser(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServicePool, error) {
		return NewServicePool(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServicePrize, error) {
		return NewServicePrize(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceWinnerFeed, error) {
		return NewServiceWinnerFeed(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceDraw, error) {
		return NewServiceDraw(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceAdmin, error) {
		return NewServiceAdmin(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceDailyReset, error) {
		return NewServiceDailyReset(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceWork, error) {
		return NewServiceWork(i)
	})
}
