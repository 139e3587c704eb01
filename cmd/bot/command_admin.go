package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"luckydraw/internal/services"
)

func AuthRequireAdmin(ctx tele.Context) bool {
	serviceAdmin, err := getContextService[*services.ServiceAdmin](ctx)
	authorized := err == nil && serviceAdmin.IsAdmin(senderID(ctx))

	if !authorized {
		ctx.Send("You are not authorized to use this bot here.")
	}

	return authorized
}

func commandStats(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	stats, err := serviceAdmin.GetStats(context.Background(), senderID(c))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Users: %d\nDraws: %d\nPrizes: %d\n", stats.TotalUsers, stats.TotalDraws, stats.TotalPrizes))
	for _, count := range stats.ByTier {
		sb.WriteString(fmt.Sprintf("\n%s: %d", count.Tier, count.Count))
	}

	return c.Send(sb.String())
}

func commandPool(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	pools, err := serviceAdmin.GetTodayPool(context.Background(), senderID(c))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if len(pools) == 0 {
		return c.Send("Today's pool is not created yet.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pool %s\n", pools[0].PrizeDate))
	for _, pool := range pools {
		sb.WriteString(fmt.Sprintf("\n%s: %d left of %d (won %d)", pool.Tier, pool.Remaining, pool.TotalCount, pool.WonCount))
	}

	return c.Send(sb.String())
}

func commandToggleTopTier(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	enabled, err := serviceAdmin.ToggleTopTier(context.Background(), senderID(c))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if enabled {
		return c.Send("Grand prize is now ENABLED")
	}
	return c.Send("Grand prize is now DISABLED")
}

func commandGrant(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	query := c.Args()
	if len(query) < 2 {
		return c.Send("Usage: /grant <user id> <amount>")
	}

	amount, err := strconv.Atoi(query[1])
	if err != nil || amount == 0 {
		return c.Send("Amount must be a non-zero number")
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	user, err := serviceAdmin.GrantChances(context.Background(), senderID(c), query[0], amount)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("User %s now has %d chances", user.ExternalID, user.DrawChances))
}

func commandPurchase(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	query := c.Args()
	if len(query) < 1 {
		return c.Send("Usage: /purchase <user id>")
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	user, err := serviceAdmin.ConfirmPurchase(context.Background(), senderID(c), query[0])
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Purchase confirmed for %s, %d chances", user.ExternalID, user.DrawChances))
}

func commandSetConfig(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	query := c.Args()
	if len(query) < 2 {
		return c.Send("Usage: /setconfig <key> <value>")
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if err := serviceAdmin.SetConfig(context.Background(), senderID(c), query[0], query[1]); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("%s = %s", query[0], query[1]))
}

func commandExport(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	limit := services.EXPORT_MAX_LIMIT
	if query := c.Args(); len(query) > 0 {
		n, err := strconv.Atoi(query[0])
		if err != nil || n <= 0 {
			return c.Send("Limit must be a positive number")
		}
		limit = n
	}

	serviceAdmin, err := getContextService[*services.ServiceAdmin](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	prizes, err := serviceAdmin.ExportPrizes(context.Background(), senderID(c), limit)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	var buf bytes.Buffer
	if err := services.WritePrizesCSV(&buf, prizes); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(&tele.Document{
		File:     tele.FromReader(&buf),
		FileName: "prizes.csv",
		Caption:  fmt.Sprintf("%d prizes", len(prizes)),
	})
}
