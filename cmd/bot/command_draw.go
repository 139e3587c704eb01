package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/google/logger"
	tele "gopkg.in/telebot.v3"

	"luckydraw/internal/models"
	"luckydraw/internal/services"
)

const WINNERS_SHOWN = 10

func commandDraw(c tele.Context) error {
	serviceDraw, err := getContextService[*services.ServiceDraw](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	result, err := serviceDraw.ExecuteDraw(context.Background(), senderID(c), senderName(c))
	if err != nil {
		return c.Send(fmt.Sprintf("Draw failed: %s", err.Error()))
	}

	text, err := formatDrawResult(result)
	if err != nil {
		logger.Errorf("draw %s: %v", senderID(c), err)
		return c.Send("Draw failed, please contact support.")
	}

	return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeHTML})
}

func formatDrawResult(result models.DrawResult) (string, error) {
	switch result.Type {
	case models.DrawNoChance:
		return "You have no draw chances left. Make a purchase or come back tomorrow.", nil
	case models.DrawDailyLimit:
		return "You reached today's draw limit. Your chances are kept for tomorrow.", nil
	case models.DrawNoWin:
		return "No luck this time. Try again!", nil
	case models.DrawWin:
		if result.Prize == nil {
			return "", errors.New("win without a prize")
		}
		return fmt.Sprintf("🎉 You won <b>%s</b>!\nCoupon: <code>%s</code>\nValid until %s",
			html.EscapeString(result.Prize.Name),
			result.Prize.CouponCode,
			result.Prize.ExpiresAt.Format("2006-01-02"),
		), nil
	default:
		return "", fmt.Errorf("unknown draw result %q", result.Type)
	}
}

func commandMe(c tele.Context) error {
	serviceUser, err := getContextService[*services.ServiceUser](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx := context.Background()
	if _, err := serviceUser.GetOrCreate(ctx, senderID(c), senderName(c)); err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	stats, err := serviceUser.Stats(ctx, senderID(c))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Hi %s\nChances: %d\nDraws today: %d\nTotal draws: %d\nPrizes: %d\nWorks: %d",
		senderName(c),
		stats.User.DrawChances,
		stats.User.DailyDraws,
		stats.User.TotalDraws,
		stats.PrizeCount,
		stats.WorkCount,
	))
}

func commandPrizes(c tele.Context) error {
	servicePrize, err := getContextService[*services.ServicePrize](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	prizes, err := servicePrize.ListUserPrizes(context.Background(), senderID(c))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if len(prizes) == 0 {
		return c.Send("You have no prizes yet. Use /draw to try your luck!")
	}

	var sb strings.Builder
	sb.WriteString("<b>Your prizes</b>\n")
	for _, prize := range prizes {
		sb.WriteString(fmt.Sprintf("\n%s\n<code>%s</code> until %s\n",
			html.EscapeString(prize.PrizeName),
			prize.CouponCode,
			prize.ExpiresAt.Format("2006-01-02"),
		))
	}

	return c.Send(sb.String(), &tele.SendOptions{ParseMode: tele.ModeHTML})
}

func commandWinners(c tele.Context) error {
	serviceWinnerFeed, err := getContextService[*services.ServiceWinnerFeed](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	items, err := serviceWinnerFeed.Recent(context.Background(), WINNERS_SHOWN)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if len(items) == 0 {
		return c.Send("No winners yet.")
	}

	var sb strings.Builder
	sb.WriteString("Recent winners\n")
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("\n%s - %s", item.DisplayName, item.PrizeName))
	}

	return c.Send(sb.String())
}
