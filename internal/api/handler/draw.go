package handler

import (
	"errors"
	"strconv"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"luckydraw/internal/config"
	"luckydraw/internal/interfaces"
	"luckydraw/internal/pkg/limiter"
	"luckydraw/internal/services"
)

const WINNER_FEED_DEFAULT = 20

type groupDraw struct {
	container *do.Injector
}

func (gr *groupDraw) Draw(c echo.Context) error {
	ctx := c.Request().Context()

	userAuth, err := ResolveAuthUser(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	settings, err := do.Invoke[config.Settings](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if settings.DrawRateLimitPerMinute > 0 {
		lim, err := do.Invoke[interfaces.Limiter](gr.container)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
		}

		err = lim.Allow(ctx, services.LimitKeyUserDraw(userAuth.ID), redis_rate.PerMinute(settings.DrawRateLimitPerMinute))
		if err != nil {
			if errors.Is(err, limiter.ErrRateLimited) {
				return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
			}
			return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
		}
	}

	serviceDraw, err := do.Invoke[*services.ServiceDraw](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceDraw.ExecuteDraw(ctx, userAuth.ID, userAuth.DisplayName())
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}

func (gr *groupDraw) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	stats, err := serviceUser.Stats(ctx, user.ExternalID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"draw_chances":    stats.User.DrawChances,
		"daily_draws":     stats.User.DailyDraws,
		"max_daily_draws": serviceConfig.MaxDailyDraws(ctx),
		"total_draws":     stats.User.TotalDraws,
		"has_purchased":   stats.User.HasPurchased,
		"prize_count":     stats.PrizeCount,
	}, nil)
}

func (gr *groupDraw) Winners(c echo.Context) error {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = WINNER_FEED_DEFAULT
	}

	serviceWinnerFeed, err := do.Invoke[*services.ServiceWinnerFeed](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	winners, err := serviceWinnerFeed.Recent(c.Request().Context(), limit)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	return httpx.RestAbort(c, winners, nil)
}
