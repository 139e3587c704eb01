package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"luckydraw/internal/models"
	"luckydraw/internal/services"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

// Authn will NOT terminate a request without credentials; handlers decide.
func Authn(verifier interface {
	ValidateInitData(dataStr string) (*models.UserFromAuth, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			user, err := verifier.ValidateInitData(token)
			if err != nil {
				// although it's a client error, we don't want to detailed information
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveAuthUser(ctx context.Context) (*models.UserFromAuth, error) {
	userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}
	return userAuth, nil
}

// ResolveValidUser returns the stored user for the session, creating it on first sight.
func ResolveValidUser(ctx context.Context, container *do.Injector) (*models.User, error) {
	userAuth, err := ResolveAuthUser(ctx)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return serviceUser.GetOrCreate(ctx, userAuth.ID, userAuth.DisplayName())
}

func AdminOnly(container *do.Injector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userAuth, err := ResolveAuthUser(c.Request().Context())
			if err != nil {
				return httpx.RestAbort(c, nil, err)
			}

			serviceAdmin, err := do.Invoke[*services.ServiceAdmin](container)
			if err != nil {
				return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
			}

			if !serviceAdmin.IsAdmin(userAuth.ID) {
				return httpx.RestAbort(c, nil, errorx.Wrap(services.ErrNotAdmin, errorx.Authn))
			}

			return next(c)
		}
	}
}
