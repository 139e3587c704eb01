package main

import (
	"fmt"
	"strconv"

	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"

	"luckydraw/internal/config"
)

func getContextContainer(context tele.Context) (*do.Injector, error) {
	contextValue := context.Get(contextContainer)
	if contextValue == nil {
		return nil, fmt.Errorf("container not found")
	}

	result, ok := contextValue.(*do.Injector)
	if !ok {
		return nil, fmt.Errorf("container not valid")
	}

	return result, nil
}

func getContextSettings(context tele.Context) (config.Settings, error) {
	contextValue := context.Get(contextSettings)
	if contextValue == nil {
		return config.Settings{}, fmt.Errorf("settings not found")
	}

	result, ok := contextValue.(config.Settings)
	if !ok {
		return config.Settings{}, fmt.Errorf("settings not valid")
	}

	return result, nil
}

// getContextService resolves a service from the container stored on the context.
func getContextService[T any](context tele.Context) (T, error) {
	injector, err := getContextContainer(context)
	if err != nil {
		var zero T
		return zero, err
	}

	return do.Invoke[T](injector)
}

func senderID(c tele.Context) string {
	return strconv.FormatInt(c.Sender().ID, 10)
}

func senderName(c tele.Context) string {
	sender := c.Sender()
	if sender.Username != "" {
		return sender.Username
	}
	if sender.LastName == "" {
		return sender.FirstName
	}
	return sender.FirstName + " " + sender.LastName
}
