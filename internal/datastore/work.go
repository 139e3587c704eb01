package datastore

import (
	"context"

	"github.com/uptrace/bun"

	"luckydraw/internal/models"
)

func CreateTableWork(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*models.Work)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Work)(nil)).Index("index_work_work_uid").Unique().IfNotExists().Column("work_uid").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Work)(nil)).Index("index_work_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertWork(ctx context.Context, db bun.IDB, work *models.Work) error {
	_, err := db.NewInsert().Model(work).Exec(ctx)
	return err
}

func FindWorksByUser(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.Work, error) {
	var works []*models.Work
	err := db.NewSelect().Model(&works).Where("user_id = ?", userID).Order("created_at DESC", "id DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return works, nil
}

func FindWorkByUID(ctx context.Context, db bun.IDB, workUID string) (*models.Work, error) {
	var work models.Work
	err := db.NewSelect().Model(&work).Where("work_uid = ?", workUID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &work, nil
}

func CountWorksByUser(ctx context.Context, db bun.IDB, userID int64) (int, error) {
	return db.NewSelect().Model((*models.Work)(nil)).Where("user_id = ?", userID).Count(ctx)
}

func IncrementWorkView(ctx context.Context, db bun.IDB, workUID string) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.Work)(nil)).
		Set("view_count = view_count + 1").
		Where("work_uid = ?", workUID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}
