package services

import (
	"context"
	"strconv"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"

	"luckydraw/internal/config"
	"luckydraw/internal/models"
)

// ServiceAdmin exposes the operator commands. Every call names the acting
// identity, which must be listed in the admin ids.
type ServiceAdmin struct {
	container *do.Injector
	settings  config.Settings

	serviceConfig *ServiceConfig
	serviceUser   *ServiceUser
	servicePool   *ServicePool
	servicePrize  *ServicePrize
}

func NewServiceAdmin(container *do.Injector) (*ServiceAdmin, error) {
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

	return &ServiceAdmin{container, settings, serviceConfig, serviceUser, servicePool, servicePrize}, nil
}

func (service *ServiceAdmin) authorize(actorID string) error {
	if !service.settings.IsAdmin(actorID) {
		return errorx.Wrap(ErrNotAdmin, errorx.Authn)
	}
	return nil
}

func (service *ServiceAdmin) IsAdmin(actorID string) bool {
	return service.settings.IsAdmin(actorID)
}

func (service *ServiceAdmin) GetStats(ctx context.Context, actorID string) (*models.PrizeStats, error) {
	if err := service.authorize(actorID); err != nil {
		return nil, err
	}
	return service.servicePrize.Stats(ctx)
}

func (service *ServiceAdmin) GetTodayPool(ctx context.Context, actorID string) ([]*models.DailyPrizePool, error) {
	if err := service.authorize(actorID); err != nil {
		return nil, err
	}

	if err := service.servicePool.EnsureTodayPool(ctx); err != nil {
		return nil, err
	}
	return service.servicePool.GetTodayPoolStatus(ctx)
}

// ToggleTopTier flips the grand tier and returns the new state.
func (service *ServiceAdmin) ToggleTopTier(ctx context.Context, actorID string) (bool, error) {
	if err := service.authorize(actorID); err != nil {
		return false, err
	}

	current, err := service.serviceConfig.LoadFirstPrizeEnabled(ctx)
	if err != nil {
		return false, err
	}

	enabled := !current
	if err := service.serviceConfig.Set(ctx, CONFIG_FIRST_PRIZE_ENABLED, strconv.FormatBool(enabled)); err != nil {
		return false, err
	}

	if enabled {
		if err := service.servicePool.EnableGrandTier(ctx); err != nil {
			return enabled, err
		}
	}

	logger.Infof("admin %s: top tier enabled=%v", actorID, enabled)
	return enabled, nil
}

func (service *ServiceAdmin) GrantChances(ctx context.Context, actorID, externalID string, amount int) (*models.User, error) {
	if err := service.authorize(actorID); err != nil {
		return nil, err
	}

	user, err := service.serviceUser.GrantChances(ctx, externalID, amount)
	if err != nil {
		return nil, err
	}
	logger.Infof("admin %s: granted %d chances to %s", actorID, amount, externalID)
	return user, nil
}

// ConfirmPurchase unlocks the ranked tiers for the user and credits the purchase bonus.
func (service *ServiceAdmin) ConfirmPurchase(ctx context.Context, actorID, externalID string) (*models.User, error) {
	if err := service.authorize(actorID); err != nil {
		return nil, err
	}

	if _, err := service.serviceUser.MarkPurchased(ctx, externalID); err != nil {
		return nil, err
	}

	user, err := service.serviceUser.AddDrawChance(ctx, externalID, service.settings.PurchaseBonusChances)
	if err != nil {
		return nil, err
	}
	logger.Infof("admin %s: confirmed purchase for %s", actorID, externalID)
	return user, nil
}

func (service *ServiceAdmin) SetConfig(ctx context.Context, actorID, key, value string) error {
	if err := service.authorize(actorID); err != nil {
		return err
	}

	if err := service.serviceConfig.Set(ctx, key, value); err != nil {
		return err
	}
	logger.Infof("admin %s: config %s=%s", actorID, key, value)
	return nil
}

func (service *ServiceAdmin) ExportPrizes(ctx context.Context, actorID string, limit int) ([]*models.Prize, error) {
	if err := service.authorize(actorID); err != nil {
		return nil, err
	}
	return service.servicePrize.Latest(ctx, limit)
}
