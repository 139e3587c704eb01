package services

import (
	"context"
	"errors"

	"github.com/google/logger"
	"github.com/samber/do"

	"luckydraw/internal/pkg/locker"
)

// ServiceDailyReset is the midnight job: zero daily counters, then open today's pool.
type ServiceDailyReset struct {
	container *do.Injector
	locker    locker.Locker

	serviceUser *ServiceUser
	servicePool *ServicePool
}

func NewServiceDailyReset(container *do.Injector) (*ServiceDailyReset, error) {
	lock, err := do.Invoke[locker.Locker](container)
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

	return &ServiceDailyReset{container, lock, serviceUser, servicePool}, nil
}

// Run returns ErrDailyResetLock when another replica is already running it.
func (service *ServiceDailyReset) Run(ctx context.Context) error {
	unlock, err := service.locker.TryLock(ctx, LockKeyDailyReset())
	if err != nil {
		if errors.Is(err, locker.ErrLocked) {
			return ErrDailyResetLock
		}
		return err
	}
	defer unlock()

	n, err := service.serviceUser.ResetAllDaily(ctx)
	if err != nil {
		return err
	}
	logger.Infof("daily reset: %d users reset", n)

	if err := service.servicePool.EnsureTodayPool(ctx); err != nil {
		return err
	}
	logger.Info("daily reset: pool ready")
	return nil
}
