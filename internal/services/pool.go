package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/logger"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

// ServicePool manages the per-day, per-tier prize stock.
type ServicePool struct {
	container  *do.Injector
	postgresDB *bun.DB
	calendar   *calendar.Calendar
	tiers      models.Tiers
}

func NewServicePool(container *do.Injector) (*ServicePool, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
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

	return &ServicePool{container, postgresDB, cal, settings.Tiers}, nil
}

// EnsureTodayPool creates today's rows for every non-grand tier. Unused stock
// from yesterday rolls over, clamped to what the lifetime cap still allows.
// Rows that already exist are never touched.
func (service *ServicePool) EnsureTodayPool(ctx context.Context) error {
	today := service.calendar.Today()
	pooled := service.tiers.Pooled()

	existing, err := datastore.FindPoolsByDate(ctx, service.postgresDB, today)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, pool := range existing {
		have[pool.Tier] = true
	}

	yesterday := today.AddDays(-1)
	for _, tier := range pooled {
		if have[tier.Key] {
			continue
		}

		rollover := 0
		prev, err := datastore.FindPool(ctx, service.postgresDB, yesterday, tier.Key)
		switch {
		case err == nil:
			rollover = prev.Remaining
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		quota := tier.PoolQuota() + rollover
		if tier.HasLifetimeCap() {
			awarded, err := datastore.CountPrizesByTier(ctx, service.postgresDB, tier.Key)
			if err != nil {
				return err
			}
			quota = min(quota, max(0, tier.LifetimeCap-awarded))
		}

		created, err := datastore.InsertPoolIfAbsent(ctx, service.postgresDB, &models.DailyPrizePool{
			PrizeDate:  today,
			Tier:       tier.Key,
			TotalCount: quota,
			Remaining:  quota,
			CreatedAt:  service.calendar.Now(),
		})
		if err != nil {
			return err
		}
		if created {
			logger.Infof("pool %s %s: %d (rollover %d)", today, tier.Key, quota, rollover)
		}
	}

	return nil
}

// EnableGrandTier adds today's grand row when the lifetime cap still allows it.
func (service *ServicePool) EnableGrandTier(ctx context.Context) error {
	grand, ok := service.tiers.Grand()
	if !ok {
		return nil
	}

	awarded, err := datastore.CountPrizesByTier(ctx, service.postgresDB, grand.Key)
	if err != nil {
		return err
	}

	quota := 1
	if grand.HasLifetimeCap() {
		quota = min(1, max(0, grand.LifetimeCap-awarded))
	}

	_, err = datastore.InsertPoolIfAbsent(ctx, service.postgresDB, &models.DailyPrizePool{
		PrizeDate:  service.calendar.Today(),
		Tier:       grand.Key,
		TotalCount: quota,
		Remaining:  quota,
		CreatedAt:  service.calendar.Now(),
	})
	return err
}

// GetRemaining is 0 when today has no row for the tier.
func (service *ServicePool) GetRemaining(ctx context.Context, tier string) (int, error) {
	pool, err := datastore.FindPool(ctx, service.postgresDB, service.calendar.Today(), tier)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pool.Remaining, nil
}

// DeductPool takes one unit of today's stock through db, which may be a transaction.
func (service *ServicePool) DeductPool(ctx context.Context, db bun.IDB, tier string) (bool, error) {
	return datastore.DeductPool(ctx, db, service.calendar.Today(), tier)
}

func (service *ServicePool) GetTodayPoolStatus(ctx context.Context) ([]*models.DailyPrizePool, error) {
	return datastore.FindPoolsByDate(ctx, service.postgresDB, service.calendar.Today())
}
