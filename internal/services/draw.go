package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"luckydraw/internal/config"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/locker"
)

// ServiceDraw runs one draw from chance consumption to prize award.
type ServiceDraw struct {
	container  *do.Injector
	postgresDB *bun.DB
	locker     locker.Locker
	settings   config.Settings
	random     func() float64

	serviceConfig     *ServiceConfig
	serviceUser       *ServiceUser
	servicePool       *ServicePool
	servicePrize      *ServicePrize
	serviceWinnerFeed *ServiceWinnerFeed
}

func NewServiceDraw(container *do.Injector) (*ServiceDraw, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	lock, err := do.Invoke[locker.Locker](container)
	if err != nil {
		return nil, err
	}

	settings, err := do.Invoke[config.Settings](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	servicePool, err := do.Invoke[*ServicePool](container)
	if err != nil {
		return nil, err
	}

	servicePrize, err := do.Invoke[*ServicePrize](container)
	if err != nil {
		return nil, err
	}

	serviceWinnerFeed, err := do.Invoke[*ServiceWinnerFeed](container)
	if err != nil {
		return nil, err
	}

	return &ServiceDraw{
		container:         container,
		postgresDB:        postgresDB,
		locker:            lock,
		settings:          settings,
		random:            rand.Float64,
		serviceConfig:     serviceConfig,
		serviceUser:       serviceUser,
		servicePool:       servicePool,
		servicePrize:      servicePrize,
		serviceWinnerFeed: serviceWinnerFeed,
	}, nil
}

// ExecuteDraw returns a result for every completed draw. A non-nil error means
// the draw could not be processed; if the chance was already taken it stays taken.
func (service *ServiceDraw) ExecuteDraw(ctx context.Context, externalID, displayName string) (models.DrawResult, error) {
	unlock, err := service.locker.TryLock(ctx, LockKeyUserDraw(externalID))
	if err != nil {
		if errors.Is(err, locker.ErrLocked) {
			return models.DrawResult{}, errorx.Wrap(ErrDrawInProgress, errorx.Invalid)
		}
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}
	defer unlock()

	user, err := service.serviceUser.GetOrCreate(ctx, externalID, displayName)
	if err != nil {
		return models.DrawResult{}, err
	}

	user, err = service.serviceUser.ResetDailyIfNeeded(ctx, user)
	if err != nil {
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}

	if user.DrawChances <= 0 {
		return models.DrawResult{Type: models.DrawNoChance}, nil
	}

	maxDailyDraws := service.serviceConfig.MaxDailyDraws(ctx)
	if user.DailyDraws >= maxDailyDraws {
		return models.DrawResult{Type: models.DrawDailyLimit}, nil
	}

	user, consumed, err := service.serviceUser.ConsumeChance(ctx, user, maxDailyDraws)
	if err != nil {
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}
	if !consumed {
		if user.DrawChances <= 0 {
			return models.DrawResult{Type: models.DrawNoChance}, nil
		}
		return models.DrawResult{Type: models.DrawDailyLimit}, nil
	}

	// the chance is spent; finish the draw even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	if err := service.servicePool.EnsureTodayPool(ctx); err != nil {
		logger.Errorf("draw %s: ensure pool: %v", externalID, err)
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}

	if user.TotalDraws == 1 {
		return service.firstWin(ctx, user)
	}

	if service.random() >= service.serviceConfig.WinProbability(ctx) {
		return models.DrawResult{Type: models.DrawNoWin}, nil
	}

	wins, err := service.servicePrize.CountUserWinsToday(ctx, user.ID)
	if err != nil {
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}
	if wins >= service.serviceConfig.MaxUserDailyWins(ctx) {
		return models.DrawResult{Type: models.DrawNoWin}, nil
	}

	candidates, err := service.Candidates(ctx, user)
	if err != nil {
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}
	if len(candidates) == 0 {
		return models.DrawResult{Type: models.DrawNoWin}, nil
	}

	gacha, err := NewTierGacha(candidates)
	if err != nil {
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}
	tier := gacha.Pick()

	prize, err := service.award(ctx, user, tier, true)
	if errors.Is(err, errPoolExhausted) {
		logger.Infof("draw %s: %s ran out before award", externalID, tier.Key)
		return models.DrawResult{Type: models.DrawNoWin}, nil
	}
	if err != nil {
		logger.Errorf("draw %s: award %s: %v", externalID, tier.Key, err)
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}

	return service.won(ctx, user, prize), nil
}

// firstWin awards the entry tier. Stock is taken when there is some, but the
// win does not depend on it.
func (service *ServiceDraw) firstWin(ctx context.Context, user *models.User) (models.DrawResult, error) {
	tier, ok := service.settings.Tiers.Get(service.settings.EntryTier)
	if !ok {
		return models.DrawResult{}, errorx.Wrap(ErrUnknownTier, errorx.Service)
	}

	prize, err := service.award(ctx, user, tier, false)
	if err != nil {
		logger.Errorf("draw %s: first win: %v", user.ExternalID, err)
		return models.DrawResult{}, errorx.Wrap(err, errorx.Service)
	}

	return service.won(ctx, user, prize), nil
}

// Candidates lists the tiers the user can win right now, in table order.
func (service *ServiceDraw) Candidates(ctx context.Context, user *models.User) (models.Tiers, error) {
	var candidates models.Tiers
	for _, tier := range service.settings.Tiers {
		switch tier.Kind {
		case models.TierKindGrand:
			if !user.HasPurchased || !service.serviceConfig.FirstPrizeEnabled(ctx) {
				continue
			}
		case models.TierKindRanked:
			if !user.HasPurchased {
				continue
			}
		}

		if tier.Kind != models.TierKindDiscount {
			won, err := service.servicePrize.UserHasTier(ctx, user.ID, tier.Key)
			if err != nil {
				return nil, err
			}
			if won {
				continue
			}
		}

		remaining, err := service.servicePool.GetRemaining(ctx, tier.Key)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			candidates = append(candidates, tier)
		}
	}
	return candidates, nil
}

// award takes stock and records the prize in one transaction. A coupon clash
// reruns the whole transaction.
func (service *ServiceDraw) award(ctx context.Context, user *models.User, tier models.Tier, requireStock bool) (*models.Prize, error) {
	var prize *models.Prize
	for attempt := 1; ; attempt++ {
		err := service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			ok, err := service.servicePool.DeductPool(ctx, tx, tier.Key)
			if err != nil {
				return err
			}
			if !ok {
				if requireStock {
					return errPoolExhausted
				}
				logger.Warningf("award %s to %s without stock", tier.Key, user.ExternalID)
			}

			prize, err = service.servicePrize.Record(ctx, tx, user, tier)
			return err
		})
		if err == nil {
			return prize, nil
		}
		if attempt < AWARD_MAX_ATTEMPTS && isUniqueViolation(err) {
			logger.Warningf("award %s to %s: coupon clash, retrying", tier.Key, user.ExternalID)
			continue
		}
		return nil, err
	}
}

func (service *ServiceDraw) won(ctx context.Context, user *models.User, prize *models.Prize) models.DrawResult {
	if err := service.serviceWinnerFeed.Publish(ctx, user, prize); err != nil {
		logger.Warningf("winner feed: %v", err)
	}

	return models.DrawResult{
		Type: models.DrawWin,
		Prize: &models.PrizeWin{
			ID:         prize.ID,
			Tier:       prize.Tier,
			Name:       prize.PrizeName,
			CouponCode: prize.CouponCode,
			ExpiresAt:  prize.ExpiresAt,
		},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
