package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

// ServiceUser owns a user's chance balance and daily counters.
type ServiceUser struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	calendar           *calendar.Calendar
	settings           config.Settings

	serviceConfig *ServiceConfig
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
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

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, postgresDB, readonlyPostgresDB, cal, settings, serviceConfig}, nil
}

// GetOrCreate is safe to call concurrently for the same external id.
func (service *ServiceUser) GetOrCreate(ctx context.Context, externalID, displayName string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errorx.Wrap(errors.New("missing user id"), errorx.Validation)
	}

	user, err := datastore.FindUserByExternalID(ctx, service.postgresDB, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := service.calendar.Now()
	newUser := &models.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		DrawChances: service.settings.StartingChances,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := datastore.InsertUserIfAbsent(ctx, service.postgresDB, newUser)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Infof("Create new user: %s (%s)", externalID, displayName)
	}

	return datastore.FindUserByExternalID(ctx, service.postgresDB, externalID)
}

// resolve backs the paths that may be a user's first interaction, such as an
// admin grant. A user created here is named by its id until it draws.
func (service *ServiceUser) resolve(ctx context.Context, externalID string) (*models.User, error) {
	return service.GetOrCreate(ctx, externalID, strings.TrimSpace(externalID))
}

func (service *ServiceUser) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	user, err := datastore.FindUserByExternalID(ctx, service.postgresDB, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("user not found"), errorx.NotExist)
	}
	return user, err
}

// ResetDailyIfNeeded returns the user as seen after the reset.
func (service *ServiceUser) ResetDailyIfNeeded(ctx context.Context, user *models.User) (*models.User, error) {
	today := service.calendar.Today()
	if user.LastDrawDate == today {
		return user, nil
	}

	if _, err := datastore.ResetUserDaily(ctx, service.postgresDB, user.ID, today, service.calendar.Now()); err != nil {
		return nil, err
	}
	return datastore.FindUserByID(ctx, service.postgresDB, user.ID)
}

// ConsumeChance reports ok=false when the guarded update matched no row. The
// returned user is always the fresh state.
func (service *ServiceUser) ConsumeChance(ctx context.Context, user *models.User, maxDailyDraws int) (*models.User, bool, error) {
	ok, err := datastore.ConsumeChance(ctx, service.postgresDB, user.ID, maxDailyDraws, service.calendar.Now())
	if err != nil {
		return nil, false, err
	}

	fresh, err := datastore.FindUserByID(ctx, service.postgresDB, user.ID)
	if err != nil {
		return nil, false, err
	}
	return fresh, ok, nil
}

// AddDrawChance credits earned chances, clamped by the daily earn cap.
func (service *ServiceUser) AddDrawChance(ctx context.Context, externalID string, amount int) (*models.User, error) {
	if amount <= 0 {
		return nil, errorx.Wrap(errors.New("amount must be positive"), errorx.Validation)
	}

	user, err := service.resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}

	dailyCap := service.serviceConfig.MaxDailyEarn(ctx)
	for attempt := 0; attempt < ADD_CHANCE_MAX_ATTEMPTS; attempt++ {
		user, err = service.ResetDailyIfNeeded(ctx, user)
		if err != nil {
			return nil, err
		}

		actual := min(amount, max(0, dailyCap-user.DailyEarned))
		if actual <= 0 {
			return user, nil
		}

		ok, err := datastore.AddEarnedChances(ctx, service.postgresDB, user.ID, actual, dailyCap, service.calendar.Now())
		if err != nil {
			return nil, err
		}

		user, err = datastore.FindUserByID(ctx, service.postgresDB, user.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			return user, nil
		}
	}

	logger.Warningf("add draw chance %s: gave up after %d attempts", externalID, ADD_CHANCE_MAX_ATTEMPTS)
	return user, nil
}

// GrantChances is the privileged adjustment; it skips the earn cap.
func (service *ServiceUser) GrantChances(ctx context.Context, externalID string, amount int) (*models.User, error) {
	if amount == 0 {
		return nil, errorx.Wrap(errors.New("amount must not be zero"), errorx.Validation)
	}

	user, err := service.resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}

	ok, err := datastore.AddChances(ctx, service.postgresDB, user.ID, amount, service.calendar.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorx.Wrap(errors.New("chances would become negative"), errorx.Invalid)
	}

	return datastore.FindUserByID(ctx, service.postgresDB, user.ID)
}

func (service *ServiceUser) MarkPurchased(ctx context.Context, externalID string) (*models.User, error) {
	user, err := service.resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if !user.HasPurchased {
		if err := datastore.MarkUserPurchased(ctx, service.postgresDB, user.ID, service.calendar.Now()); err != nil {
			return nil, err
		}
	}

	return datastore.FindUserByID(ctx, service.postgresDB, user.ID)
}

func (service *ServiceUser) ResetAllDaily(ctx context.Context) (int64, error) {
	return datastore.ResetAllUsersDaily(ctx, service.postgresDB, service.calendar.Today(), service.calendar.Now())
}

func (service *ServiceUser) Stats(ctx context.Context, externalID string) (*models.UserStats, error) {
	user, err := service.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	user, err = service.ResetDailyIfNeeded(ctx, user)
	if err != nil {
		return nil, err
	}

	prizeCount, err := datastore.CountPrizesByUser(ctx, service.readonlyPostgresDB, user.ID)
	if err != nil {
		return nil, err
	}

	workCount, err := datastore.CountWorksByUser(ctx, service.readonlyPostgresDB, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{User: user, PrizeCount: prizeCount, WorkCount: workCount}, nil
}
