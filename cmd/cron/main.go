package main

import (
	"io"
	"log"
	"os"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"

	"luckydraw/internal/config"
	"luckydraw/internal/container"
	"luckydraw/internal/pkg/calendar"
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

type CronJob interface {
	Start(cronRunner *cron.Cron) error
}

func main() {
	defer logger.Init("cron", true, false, io.Discard).Close()

	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
			commandResetNow(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newInjector() (*do.Injector, error) {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		return nil, err
	}

	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	injector, err := container.New(vs, settings)
	if err != nil {
		return nil, err
	}

	// the summary is optional; without a token nobody is notified
	do.Provide(injector, func(i *do.Injector) (*services.Bot, error) {
		return services.NewBot(os.Getenv("BOT_TOKEN"), settings.WebDomain)
	})

	return injector, nil
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name:  "cron",
		Usage: "run the scheduled jobs until interrupted",
		Action: func(c *cli.Context) error {
			injector, err := newInjector()
			if err != nil {
				return err
			}

			cal := do.MustInvoke[*calendar.Calendar](injector)
			cronRunner := cron.New(cron.WithLocation(cal.Location()))

			jobs := []CronJob{
				NewDailyResetJob(injector),
			}
			for _, job := range jobs {
				if err := job.Start(cronRunner); err != nil {
					return err
				}
			}

			logger.Info("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func commandResetNow() *cli.Command {
	return &cli.Command{
		Name:  "reset-now",
		Usage: "run the daily reset once and exit",
		Action: func(c *cli.Context) error {
			injector, err := newInjector()
			if err != nil {
				return err
			}

			return NewDailyResetJob(injector).run(c.Context)
		},
	}
}
