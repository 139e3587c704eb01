package services

import (
	"context"
	"errors"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
	"luckydraw/internal/pkg/coupon"
)

// ServicePrize keeps the durable record of every award.
type ServicePrize struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	calendar           *calendar.Calendar
	issuer             *coupon.Issuer
	tiers              models.Tiers

	serviceUser *ServiceUser
}

func NewServicePrize(container *do.Injector) (*ServicePrize, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
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

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	issuer := coupon.NewIssuer(settings.CouponValidityMonths)
	return &ServicePrize{container, postgresDB, readonlyPostgresDB, cal, issuer, settings.Tiers, serviceUser}, nil
}

// Record writes a prize with a fresh coupon through db, which may be a transaction.
func (service *ServicePrize) Record(ctx context.Context, db bun.IDB, user *models.User, tier models.Tier) (*models.Prize, error) {
	code, err := service.issuer.Generate(tier.Prefix)
	if err != nil {
		return nil, err
	}

	now := service.calendar.Now()
	prize := &models.Prize{
		UserID:         user.ID,
		ExternalUserID: user.ExternalID,
		Tier:           tier.Key,
		PrizeName:      tier.Name,
		CouponCode:     code,
		PrizeDate:      service.calendar.Today(),
		CreatedAt:      now,
		ExpiresAt:      service.issuer.ExpiresAt(now),
	}
	if err := datastore.InsertPrize(ctx, db, prize); err != nil {
		return nil, err
	}
	return prize, nil
}

func (service *ServicePrize) CountUserWinsToday(ctx context.Context, userID int64) (int, error) {
	return datastore.CountUserPrizesOnDay(ctx, service.postgresDB, userID, service.calendar.Today())
}

func (service *ServicePrize) UserHasTier(ctx context.Context, userID int64, tier string) (bool, error) {
	return datastore.UserHasTier(ctx, service.postgresDB, userID, tier)
}

func (service *ServicePrize) ListUserPrizes(ctx context.Context, externalID string) ([]*models.Prize, error) {
	user, err := service.serviceUser.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return datastore.FindPrizesByUser(ctx, service.readonlyPostgresDB, user.ID, USER_PRIZE_LIST_LIMIT)
}

// MarkCopied flags the coupon as copied; only the owner can do it.
func (service *ServicePrize) MarkCopied(ctx context.Context, externalID string, prizeID int64) error {
	user, err := service.serviceUser.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	ok, err := datastore.MarkPrizeCopied(ctx, service.postgresDB, prizeID, user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errorx.Wrap(errors.New("prize not found"), errorx.NotExist)
	}
	return nil
}

// Latest lists prizes newest first. limit defaults to 50 and is capped at 1000.
func (service *ServicePrize) Latest(ctx context.Context, limit int) ([]*models.Prize, error) {
	if limit <= 0 {
		limit = EXPORT_DEFAULT_LIMIT
	}
	if limit > EXPORT_MAX_LIMIT {
		limit = EXPORT_MAX_LIMIT
	}
	return datastore.FindLatestPrizes(ctx, service.readonlyPostgresDB, limit)
}

func (service *ServicePrize) Stats(ctx context.Context) (*models.PrizeStats, error) {
	totalUsers, err := datastore.CountUsers(ctx, service.readonlyPostgresDB)
	if err != nil {
		return nil, err
	}

	totalDraws, err := datastore.SumTotalDraws(ctx, service.readonlyPostgresDB)
	if err != nil {
		return nil, err
	}

	totalPrizes, err := datastore.CountPrizes(ctx, service.readonlyPostgresDB)
	if err != nil {
		return nil, err
	}

	byTier, err := datastore.CountPrizesGroupByTier(ctx, service.readonlyPostgresDB)
	if err != nil {
		return nil, err
	}

	return &models.PrizeStats{
		TotalUsers:  totalUsers,
		TotalDraws:  totalDraws,
		TotalPrizes: totalPrizes,
		ByTier:      byTier,
	}, nil
}
