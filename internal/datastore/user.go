package datastore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

func CreateTableUser(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_lottery_user_external_id").Unique().IfNotExists().Column("external_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertUserIfAbsent reports whether a new row was written.
func InsertUserIfAbsent(ctx context.Context, db bun.IDB, user *models.User) (bool, error) {
	res, err := db.NewInsert().Model(user).On("CONFLICT (external_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func FindUserByExternalID(ctx context.Context, db bun.IDB, externalID string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("external_id = ?", externalID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db bun.IDB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetUserDaily zeroes the daily counters once per calendar day.
func ResetUserDaily(ctx context.Context, db bun.IDB, userID int64, today calendar.Day, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("daily_draws = 0").
		Set("daily_earned = 0").
		Set("last_draw_date = ?", today).
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Where("(last_draw_date IS NULL OR last_draw_date <> ?)", today).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// ResetAllUsersDaily applies ResetUserDaily to every user still on an older day.
func ResetAllUsersDaily(ctx context.Context, db bun.IDB, today calendar.Day, now time.Time) (int64, error) {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("daily_draws = 0").
		Set("daily_earned = 0").
		Set("last_draw_date = ?", today).
		Set("updated_at = ?", now).
		Where("(last_draw_date IS NULL OR last_draw_date <> ?)", today).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConsumeChance takes one chance only if the user has one and is under the daily limit.
func ConsumeChance(ctx context.Context, db bun.IDB, userID int64, maxDailyDraws int, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("draw_chances = draw_chances - 1").
		Set("daily_draws = daily_draws + 1").
		Set("total_draws = total_draws + 1").
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Where("draw_chances > 0").
		Where("daily_draws < ?", maxDailyDraws).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// AddEarnedChances credits chances as long as the daily earn cap still holds afterwards.
func AddEarnedChances(ctx context.Context, db bun.IDB, userID int64, amount, dailyCap int, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("draw_chances = draw_chances + ?", amount).
		Set("daily_earned = daily_earned + ?", amount).
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Where("daily_earned + ? <= ?", amount, dailyCap).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// AddChances adjusts chances without touching the earn counter. The balance never goes negative.
func AddChances(ctx context.Context, db bun.IDB, userID int64, amount int, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("draw_chances = draw_chances + ?", amount).
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Where("draw_chances + ? >= 0", amount).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func MarkUserPurchased(ctx context.Context, db bun.IDB, userID int64, now time.Time) error {
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("has_purchased = ?", true).
		Set("updated_at = ?", now).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

func CountUsers(ctx context.Context, db bun.IDB) (int, error) {
	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func SumTotalDraws(ctx context.Context, db bun.IDB) (int, error) {
	var total int
	err := db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("COALESCE(SUM(total_draws), 0)").
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func affectedOne(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
