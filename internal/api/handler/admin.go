package handler

import (
	"strconv"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"luckydraw/internal/services"
)

// groupAdmin sits behind AdminOnly; the services check the actor again.
type groupAdmin struct {
	container *do.Injector
}

type grantPayload struct {
	Amount int `json:"amount"`
}

type configPayload struct {
	Value string `json:"value"`
}

func (gr *groupAdmin) service(c echo.Context) (*services.ServiceAdmin, string, error) {
	userAuth, err := ResolveAuthUser(c.Request().Context())
	if err != nil {
		return nil, "", err
	}

	serviceAdmin, err := do.Invoke[*services.ServiceAdmin](gr.container)
	if err != nil {
		return nil, "", errorx.Wrap(err, errorx.Service)
	}

	return serviceAdmin, userAuth.ID, nil
}

func (gr *groupAdmin) Stats(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	stats, err := serviceAdmin.GetStats(c.Request().Context(), actorID)
	return httpx.RestAbort(c, stats, err)
}

func (gr *groupAdmin) Pool(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	pools, err := serviceAdmin.GetTodayPool(c.Request().Context(), actorID)
	return httpx.RestAbort(c, pools, err)
}

func (gr *groupAdmin) ToggleTopTier(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	enabled, err := serviceAdmin.ToggleTopTier(c.Request().Context(), actorID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{"enabled": enabled}, nil)
}

func (gr *groupAdmin) GrantChances(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload grantPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	user, err := serviceAdmin.GrantChances(c.Request().Context(), actorID, c.Param("id"), payload.Amount)
	return httpx.RestAbort(c, user, err)
}

func (gr *groupAdmin) ConfirmPurchase(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	user, err := serviceAdmin.ConfirmPurchase(c.Request().Context(), actorID, c.Param("id"))
	return httpx.RestAbort(c, user, err)
}

func (gr *groupAdmin) SetConfig(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload configPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	if err := serviceAdmin.SetConfig(c.Request().Context(), actorID, c.Param("key"), payload.Value); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "success", nil)
}

func (gr *groupAdmin) ExportPrizes(c echo.Context) error {
	serviceAdmin, actorID, err := gr.service(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	prizes, err := serviceAdmin.ExportPrizes(c.Request().Context(), actorID, limit)
	return httpx.RestAbort(c, prizes, err)
}
