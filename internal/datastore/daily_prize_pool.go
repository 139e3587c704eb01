package datastore

import (
	"context"

	"github.com/uptrace/bun"

	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

func CreateTableDailyPrizePool(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*models.DailyPrizePool)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.DailyPrizePool)(nil)).Index("index_daily_prize_pool_date_tier").Unique().IfNotExists().Column("prize_date", "tier").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindPool(ctx context.Context, db bun.IDB, day calendar.Day, tier string) (*models.DailyPrizePool, error) {
	var pool models.DailyPrizePool
	err := db.NewSelect().Model(&pool).Where("prize_date = ?", day).Where("tier = ?", tier).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func FindPoolsByDate(ctx context.Context, db bun.IDB, day calendar.Day) ([]*models.DailyPrizePool, error) {
	var pools []*models.DailyPrizePool
	err := db.NewSelect().Model(&pools).Where("prize_date = ?", day).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// InsertPoolIfAbsent never overwrites a row created by a concurrent caller.
func InsertPoolIfAbsent(ctx context.Context, db bun.IDB, pool *models.DailyPrizePool) (bool, error) {
	res, err := db.NewInsert().Model(pool).On("CONFLICT (prize_date, tier) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// DeductPool takes one unit of stock. It reports false when nothing was left.
func DeductPool(ctx context.Context, db bun.IDB, day calendar.Day, tier string) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.DailyPrizePool)(nil)).
		Set("remaining = remaining - 1").
		Set("won_count = won_count + 1").
		Where("prize_date = ?", day).
		Where("tier = ?", tier).
		Where("remaining > 0").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}
