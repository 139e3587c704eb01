package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/google/logger"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"

	"luckydraw/internal/config"
	"luckydraw/internal/container"
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
	defer logger.Init("admin", true, false, io.Discard).Close()

	app := &cli.App{
		Name:  "admin",
		Usage: "operator commands for the draw",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "actor",
				Usage: "admin id to act as; defaults to the first configured admin",
			},
		},
		Commands: []*cli.Command{
			commandStats(),
			commandPool(),
			commandToggleTopTier(),
			commandGrant(),
			commandConfirmPurchase(),
			commandSetConfig(),
			commandExport(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type adminContext struct {
	actorID string
	service *services.ServiceAdmin
}

func newAdminContext(c *cli.Context) (*adminContext, error) {
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

	actorID := c.String("actor")
	if actorID == "" {
		if len(settings.AdminIDs) == 0 {
			return nil, fmt.Errorf("no admin configured, pass --actor")
		}
		actorID = settings.AdminIDs[0]
	}

	injector, err := container.New(vs, settings)
	if err != nil {
		return nil, err
	}

	service, err := do.Invoke[*services.ServiceAdmin](injector)
	if err != nil {
		return nil, err
	}

	return &adminContext{actorID, service}, nil
}

func commandStats() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "print totals and prizes by tier",
		Action: func(c *cli.Context) error {
			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			stats, err := admin.service.GetStats(c.Context, admin.actorID)
			if err != nil {
				return err
			}

			fmt.Printf("users\t%d\ndraws\t%d\nprizes\t%d\n", stats.TotalUsers, stats.TotalDraws, stats.TotalPrizes)
			for _, count := range stats.ByTier {
				fmt.Printf("%s\t%d\n", count.Tier, count.Count)
			}
			return nil
		},
	}
}

func commandPool() *cli.Command {
	return &cli.Command{
		Name:  "pool",
		Usage: "print today's prize pool",
		Action: func(c *cli.Context) error {
			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			pools, err := admin.service.GetTodayPool(c.Context, admin.actorID)
			if err != nil {
				return err
			}

			for _, pool := range pools {
				fmt.Printf("%s\t%s\t%d/%d\twon %d\n", pool.PrizeDate, pool.Tier, pool.Remaining, pool.TotalCount, pool.WonCount)
			}
			return nil
		},
	}
}

func commandToggleTopTier() *cli.Command {
	return &cli.Command{
		Name:  "toggle-top-tier",
		Usage: "enable or disable the grand prize",
		Action: func(c *cli.Context) error {
			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			enabled, err := admin.service.ToggleTopTier(c.Context, admin.actorID)
			if err != nil {
				return err
			}

			fmt.Printf("grand prize enabled: %t\n", enabled)
			return nil
		},
	}
}

func commandGrant() *cli.Command {
	return &cli.Command{
		Name:      "grant",
		Usage:     "add draw chances to a user",
		ArgsUsage: "<user id> <amount>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("usage: grant <user id> <amount>")
			}

			amount, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return err
			}

			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			user, err := admin.service.GrantChances(c.Context, admin.actorID, c.Args().Get(0), amount)
			if err != nil {
				return err
			}

			fmt.Printf("%s\t%d chances\n", user.ExternalID, user.DrawChances)
			return nil
		},
	}
}

func commandConfirmPurchase() *cli.Command {
	return &cli.Command{
		Name:      "confirm-purchase",
		Usage:     "mark a user as purchaser and add the purchase bonus",
		ArgsUsage: "<user id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("usage: confirm-purchase <user id>")
			}

			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			user, err := admin.service.ConfirmPurchase(c.Context, admin.actorID, c.Args().Get(0))
			if err != nil {
				return err
			}

			fmt.Printf("%s\t%d chances\tpurchased %t\n", user.ExternalID, user.DrawChances, user.HasPurchased)
			return nil
		},
	}
}

func commandSetConfig() *cli.Command {
	return &cli.Command{
		Name:      "set-config",
		Usage:     "change a runtime setting",
		ArgsUsage: "<key> <value>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("usage: set-config <key> <value>")
			}

			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			return admin.service.SetConfig(c.Context, admin.actorID, c.Args().Get(0), c.Args().Get(1))
		},
	}
}

func commandExport() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the latest prizes as CSV",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Value: services.EXPORT_MAX_LIMIT,
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "output file, stdout when empty",
			},
		},
		Action: func(c *cli.Context) error {
			admin, err := newAdminContext(c)
			if err != nil {
				return err
			}

			prizes, err := admin.service.ExportPrizes(c.Context, admin.actorID, c.Int("limit"))
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out := c.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			return services.WritePrizesCSV(w, prizes)
		},
	}
}
