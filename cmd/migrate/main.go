package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"luckydraw/internal/config"
	"luckydraw/internal/container"
	"luckydraw/internal/datastore"
	"luckydraw/internal/models"
	"luckydraw/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandPoolMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Description: "Create tables and indexes",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			steps := []struct {
				name string
				fn   func(context.Context, bun.IDB) error
			}{
				{"config", datastore.CreateTableConfig},
				{"lottery_user", datastore.CreateTableUser},
				{"daily_prize_pool", datastore.CreateTableDailyPrizePool},
				{"prize", datastore.CreateTablePrize},
				{"work", datastore.CreateTableWork},
			}
			for _, step := range steps {
				if err := step.fn(ctx, db); err != nil {
					return fmt.Errorf("create %s: %w", step.name, err)
				}
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db; existing values are kept",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				return err
			}

			settings, err := config.Load()
			if err != nil {
				return err
			}

			now := time.Now()
			configs := []models.Config{
				{Key: services.CONFIG_WIN_PROBABILITY, Value: strconv.FormatFloat(settings.WinProbability, 'f', -1, 64)},
				{Key: services.CONFIG_MAX_DAILY_DRAWS, Value: strconv.Itoa(settings.MaxDailyDraws)},
				{Key: services.CONFIG_MAX_USER_DAILY_WINS, Value: strconv.Itoa(settings.MaxUserDailyWins)},
				{Key: services.CONFIG_MAX_DAILY_EARN, Value: strconv.Itoa(settings.MaxDailyEarn)},
				{Key: services.CONFIG_FIRST_PRIZE_ENABLED, Value: "false"},
			}

			for _, config := range configs {
				config.UpdatedAt = now
				if err := datastore.InsertConfigIfAbsent(ctx, db, &config); err != nil {
					log.Println(err)
				}
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

func commandPoolMigration() *cli.Command {
	return &cli.Command{
		Name:        "init-pool",
		Description: "Create today's prize pool if it is missing",
		Action: func(c *cli.Context) error {
			vs, err := env.EnvsRequired("DB_DSN")
			if err != nil {
				return err
			}

			settings, err := config.Load()
			if err != nil {
				return err
			}

			injector, err := container.New(vs, settings)
			if err != nil {
				return err
			}

			servicePool := do.MustInvoke[*services.ServicePool](injector)
			if err := servicePool.EnsureTodayPool(c.Context); err != nil {
				return err
			}

			pools, err := servicePool.GetTodayPoolStatus(c.Context)
			if err != nil {
				return err
			}
			for _, pool := range pools {
				fmt.Printf("%s\t%s\t%d/%d\n", pool.PrizeDate, pool.Tier, pool.Remaining, pool.TotalCount)
			}
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
