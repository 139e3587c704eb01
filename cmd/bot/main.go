package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"

	"luckydraw/internal/config"
	"luckydraw/internal/container"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

const (
	contextContainer = "context-container"
	contextSettings  = "context-settings"
)

func main() {
	defer logger.Init("bot", true, false, io.Discard).Close()

	app := &cli.App{
		Name: "bot-telegram",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Usage:  "poll telegram updates",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"DB_DSN",
	)
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

	pref := tele.Settings{
		Token:  vs["BOT_TOKEN"],
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Errorf("bot: %v", err)
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	b.Use(withContainer(injector, settings))

	// static commands
	b.Handle("/start", commandStart)
	b.Handle("/help", commandHelp)

	// player commands
	b.Handle("/draw", commandDraw)
	b.Handle("/me", commandMe)
	b.Handle("/prizes", commandPrizes)
	b.Handle("/winners", commandWinners)

	// admin commands
	b.Handle("/list", commandList)
	b.Handle("/stats", commandStats)
	b.Handle("/pool", commandPool)
	b.Handle("/toggle_top", commandToggleTopTier)
	b.Handle("/grant", commandGrant)
	b.Handle("/purchase", commandPurchase)
	b.Handle("/setconfig", commandSetConfig)
	b.Handle("/export", commandExport)

	logger.Info("Start bot")
	go func() {
		<-c.Context.Done()
		b.Stop()
	}()
	b.Start()
	return nil
}

func withContainer(injector *do.Injector, settings config.Settings) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer c.Respond()
			}

			c.Set(contextContainer, injector)
			c.Set(contextSettings, settings)

			return next(c)
		}
	}
}
