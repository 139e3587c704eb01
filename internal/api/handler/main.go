package handler

import (
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"

	"luckydraw/internal/services"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🎁")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		bot, err := do.Invoke[*services.Bot](cfg.Container)
		if err != nil {
			return nil, err
		}
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)

		routesAPIv1Me := routesAPIv1.Group("/user/me")
		routesAPIv1Me.Use(Authn(bot))
		{
			u := groupUser{cfg.Container}
			routesAPIv1Me.POST("", u.Me)
		}

		d := groupDraw{cfg.Container}
		routesAPIv1.GET("/draw/winners", d.Winners)

		w := groupWork{cfg.Container}
		routesAPIv1.GET("/works/:uid", w.Get)
		routesAPIv1.POST("/works/:uid/view", w.View)

		routesAPIv1Authed := routesAPIv1.Group("")
		routesAPIv1Authed.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		{
			u := groupUser{cfg.Container}
			routesAPIv1Authed.GET("/user", u.Stats)

			routesAPIv1Authed.POST("/draw", d.Draw)
			routesAPIv1Authed.GET("/draw/me", d.Me)

			p := groupPrize{cfg.Container}
			routesAPIv1Authed.GET("/prizes", p.List)
			routesAPIv1Authed.POST("/prizes/:id/copy", p.Copy)

			routesAPIv1Authed.POST("/works", w.Create)
			routesAPIv1Authed.GET("/works", w.List)
		}

		routesAPIv1Admin := routesAPIv1Authed.Group("/admin")
		routesAPIv1Admin.Use(AdminOnly(cfg.Container))
		{
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.GET("/stats", a.Stats)
			routesAPIv1Admin.GET("/pool", a.Pool)
			routesAPIv1Admin.POST("/top-tier/toggle", a.ToggleTopTier)
			routesAPIv1Admin.POST("/users/:id/chances", a.GrantChances)
			routesAPIv1Admin.POST("/users/:id/purchase", a.ConfirmPurchase)
			routesAPIv1Admin.PUT("/config/:key", a.SetConfig)
			routesAPIv1Admin.GET("/prizes", a.ExportPrizes)
		}
	}

	return r, nil
}
