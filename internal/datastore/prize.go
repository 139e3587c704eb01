package datastore

import (
	"context"

	"github.com/uptrace/bun"

	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

func CreateTablePrize(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*models.Prize)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Prize)(nil)).Index("index_prize_coupon_code").Unique().IfNotExists().Column("coupon_code").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Prize)(nil)).Index("index_prize_user_id_prize_date").IfNotExists().Column("user_id", "prize_date").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Prize)(nil)).Index("index_prize_tier_prize_date").IfNotExists().Column("tier", "prize_date").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertPrize(ctx context.Context, db bun.IDB, prize *models.Prize) error {
	_, err := db.NewInsert().Model(prize).Exec(ctx)
	return err
}

func FindPrizeByID(ctx context.Context, db bun.IDB, prizeID int64) (*models.Prize, error) {
	var prize models.Prize
	err := db.NewSelect().Model(&prize).Where("id = ?", prizeID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

func FindPrizesByUser(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.Prize, error) {
	var prizes []*models.Prize
	err := db.NewSelect().Model(&prizes).Where("user_id = ?", userID).Order("created_at DESC", "id DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

func FindLatestPrizes(ctx context.Context, db bun.IDB, limit int) ([]*models.Prize, error) {
	var prizes []*models.Prize
	err := db.NewSelect().Model(&prizes).Order("created_at DESC", "id DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return prizes, nil
}

// CountPrizesByTier counts every award of a tier since launch.
func CountPrizesByTier(ctx context.Context, db bun.IDB, tier string) (int, error) {
	return db.NewSelect().Model((*models.Prize)(nil)).Where("tier = ?", tier).Count(ctx)
}

func CountUserPrizesOnDay(ctx context.Context, db bun.IDB, userID int64, day calendar.Day) (int, error) {
	return db.NewSelect().Model((*models.Prize)(nil)).Where("user_id = ?", userID).Where("prize_date = ?", day).Count(ctx)
}

func CountPrizesByUser(ctx context.Context, db bun.IDB, userID int64) (int, error) {
	return db.NewSelect().Model((*models.Prize)(nil)).Where("user_id = ?", userID).Count(ctx)
}

func UserHasTier(ctx context.Context, db bun.IDB, userID int64, tier string) (bool, error) {
	return db.NewSelect().Model((*models.Prize)(nil)).Where("user_id = ?", userID).Where("tier = ?", tier).Exists(ctx)
}

func CountPrizes(ctx context.Context, db bun.IDB) (int, error) {
	return db.NewSelect().Model((*models.Prize)(nil)).Count(ctx)
}

func CountPrizesGroupByTier(ctx context.Context, db bun.IDB) ([]models.TierCount, error) {
	var counts []models.TierCount
	err := db.NewSelect().
		Model((*models.Prize)(nil)).
		ColumnExpr("tier").
		ColumnExpr("COUNT(*) AS count").
		Group("tier").
		Order("tier ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// MarkPrizeCopied only touches a prize owned by userID.
func MarkPrizeCopied(ctx context.Context, db bun.IDB, prizeID, userID int64) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.Prize)(nil)).
		Set("is_copied = ?", true).
		Where("id = ?", prizeID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}
