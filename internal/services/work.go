package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"

	"luckydraw/internal/config"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/pkg/calendar"
)

// ServiceWork records user creations. Each one earns a draw chance.
type ServiceWork struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	calendar           *calendar.Calendar
	webDomain          string

	serviceUser *ServiceUser
}

func NewServiceWork(container *do.Injector) (*ServiceWork, error) {
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

	return &ServiceWork{container, postgresDB, readonlyPostgresDB, cal, strings.TrimRight(settings.WebDomain, "/"), serviceUser}, nil
}

func (service *ServiceWork) CreateWork(ctx context.Context, externalID, mode, prompt, imageURL string) (*models.Work, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, errorx.Wrap(errors.New("image url is required"), errorx.Validation)
	}

	user, err := service.serviceUser.GetOrCreate(ctx, externalID, externalID)
	if err != nil {
		return nil, err
	}

	workUID := strings.ReplaceAll(uuid.NewString(), "-", "")[:WORK_UID_LENGTH]
	work := &models.Work{
		WorkUID:        workUID,
		UserID:         user.ID,
		ExternalUserID: user.ExternalID,
		Mode:           mode,
		Prompt:         prompt,
		ImageURL:       imageURL,
		CreatedAt:      service.calendar.Now(),
	}
	if service.webDomain != "" {
		work.ShareURL = fmt.Sprintf("%s/work/%s?ref=%s", service.webDomain, workUID, url.QueryEscape(user.ExternalID))
	}

	if err := datastore.InsertWork(ctx, service.postgresDB, work); err != nil {
		return nil, err
	}

	if _, err := service.serviceUser.AddDrawChance(ctx, externalID, 1); err != nil {
		return work, err
	}

	return work, nil
}

func (service *ServiceWork) GetUserWorks(ctx context.Context, externalID string) ([]*models.Work, error) {
	user, err := service.serviceUser.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return datastore.FindWorksByUser(ctx, service.readonlyPostgresDB, user.ID, USER_WORK_LIST_LIMIT)
}

func (service *ServiceWork) IncrementViewCount(ctx context.Context, workUID string) error {
	ok, err := datastore.IncrementWorkView(ctx, service.postgresDB, workUID)
	if err != nil {
		return err
	}
	if !ok {
		return errorx.Wrap(errors.New("work not found"), errorx.NotExist)
	}
	return nil
}

func (service *ServiceWork) GetWork(ctx context.Context, workUID string) (*models.Work, error) {
	work, err := datastore.FindWorkByUID(ctx, service.readonlyPostgresDB, workUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("work not found"), errorx.NotExist)
	}
	return work, err
}
