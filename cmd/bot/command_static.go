package main

import (
	tele "gopkg.in/telebot.v3"
)

const (
	textStart = `🎁 <b>Welcome to the Lucky Draw!</b>

Every draw is a chance to win a coupon. New players always win on their first draw.

Open the app to draw, or use /draw right here.`

	textHelp = `List of commands:
/draw - Use one chance to draw
/me - Your chances and prizes
/prizes - Your coupons
/winners - Recent winners`

	textAdminHelp = `Admin commands:
/stats - Totals and prizes by tier
/pool - Today's prize pool
/toggle_top - Enable or disable the grand prize
/grant <user id> <amount> - Add draw chances
/purchase <user id> - Confirm a purchase
/setconfig <key> <value> - Change a runtime setting
/export [limit] - Download prizes as CSV`
)

func commandStart(c tele.Context) error {
	settings, err := getContextSettings(c)
	if err != nil {
		return c.Send(err.Error())
	}

	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if settings.WebDomain != "" {
		opts.ReplyMarkup = &tele.ReplyMarkup{
			InlineKeyboard: [][]tele.InlineButton{
				{{Text: "🎰 Draw Now", WebApp: &tele.WebApp{URL: settings.WebDomain}}},
			},
		}
	}

	return c.Send(textStart, opts)
}

func commandHelp(c tele.Context) error {
	return c.Send(textHelp)
}

func commandList(c tele.Context) error {
	if !AuthRequireAdmin(c) {
		return nil
	}

	return c.Send(textAdminHelp)
}
