package handler

import (
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"luckydraw/internal/services"
)

type groupWork struct {
	container *do.Injector
}

type createWorkPayload struct {
	Mode     string `json:"mode"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
}

func (gr *groupWork) Create(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload createWorkPayload
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceWork, err := do.Invoke[*services.ServiceWork](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	work, err := serviceWork.CreateWork(ctx, user.ExternalID, payload.Mode, payload.Prompt, payload.ImageURL)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, work, nil)
}

func (gr *groupWork) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceWork, err := do.Invoke[*services.ServiceWork](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	works, err := serviceWork.GetUserWorks(ctx, user.ExternalID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, works, nil)
}

// View is public; shared links count views without a session.
func (gr *groupWork) View(c echo.Context) error {
	serviceWork, err := do.Invoke[*services.ServiceWork](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	if err := serviceWork.IncrementViewCount(c.Request().Context(), c.Param("uid")); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "success", nil)
}

func (gr *groupWork) Get(c echo.Context) error {
	serviceWork, err := do.Invoke[*services.ServiceWork](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	work, err := serviceWork.GetWork(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, work, nil)
}
