package services

import (
	"errors"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	tele "gopkg.in/telebot.v3"

	"luckydraw/internal/models"
)

const INIT_DATA_TTL = 24 * time.Hour

type Bot struct {
	token  string
	webApp string
}

func NewBot(token, webApp string) (*Bot, error) {
	return &Bot{token, webApp}, nil
}

// ValidateInitData checks the mini-app signature before trusting the user in it.
func (bot *Bot) ValidateInitData(dataStr string) (*models.UserFromAuth, error) {
	if !bot.Configured() {
		return nil, errors.New("bot token is not configured")
	}

	if err := initdata.Validate(dataStr, bot.token, INIT_DATA_TTL); err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}
	if data.User.ID == 0 {
		return nil, errors.New("init data has no user")
	}

	return &models.UserFromAuth{
		ID:        strconv.FormatInt(data.User.ID, 10),
		Username:  data.User.Username,
		FirstName: data.User.FirstName,
		LastName:  data.User.LastName,
	}, nil
}

func (bot *Bot) Configured() bool {
	return bot.token != ""
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	if !bot.Configured() {
		return errors.New("bot token is not configured")
	}

	pref := tele.Settings{
		Token:   bot.token,
		Offline: true,
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if bot.webApp != "" {
		opts.ReplyMarkup = &tele.ReplyMarkup{
			InlineKeyboard: [][]tele.InlineButton{
				{{Text: "🎁 Open Lucky Draw", WebApp: &tele.WebApp{URL: bot.webApp}}},
			},
		}
	}

	_, err = b.Send(&tele.User{ID: chatID}, text, opts)
	return err
}
