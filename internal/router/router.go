// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// Deps collects everything the routes need.  Redis may be nil, in which
// case caching and rate limiting are skipped.
type Deps struct {
	Diners       *handler.DinerHandler
	Tables       *handler.TableHandler
	Reservations *handler.ReservationHandler
	DB           handler.Pinger
	Redis        *redis.Client

	CORSOrigins []string
	Cache       config.CacheConfig
	RateLimit   config.RateLimitConfig
}

// New builds the echo instance with the global middleware chain,
// operational endpoints at the root and the resource API under /api.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: origins(d.CORSOrigins)}))

	RegisterRoutes(e, d.DB)
	RegisterAPI(e, d)
	return e
}

// RegisterRoutes registers routes that sit outside the API: the health
// check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI mounts the diner, table and reservation resources under
// /api behind the rate limiter and the response cache.
func RegisterAPI(e *echo.Echo, d Deps) {
	g := e.Group("/api",
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
		middleware.NewRedisCache(d.Cache, d.Redis),
	)

	g.GET("/diners", d.Diners.List)
	g.POST("/diners", d.Diners.Create)
	g.GET("/diners/:id", d.Diners.Show)
	g.PUT("/diners/:id", d.Diners.Update)
	g.PATCH("/diners/:id", d.Diners.Update)
	g.DELETE("/diners/:id", d.Diners.Delete)

	g.GET("/tables", d.Tables.List)
	g.POST("/tables", d.Tables.Create)
	g.GET("/tables/:id", d.Tables.Show)
	g.PUT("/tables/:id", d.Tables.Update)
	g.PATCH("/tables/:id", d.Tables.Update)
	g.DELETE("/tables/:id", d.Tables.Delete)
	g.GET("/tables/:id/availability", d.Tables.Availability)

	g.GET("/reservations", d.Reservations.List)
	g.POST("/reservations", d.Reservations.Create)
	g.GET("/reservations/:id", d.Reservations.Show)
	g.PUT("/reservations/:id", d.Reservations.Update)
	g.PATCH("/reservations/:id", d.Reservations.Update)
	g.DELETE("/reservations/:id", d.Reservations.Delete)
}

func origins(list []string) []string {
	if len(list) == 0 {
		return []string{"*"}
	}
	return list
}
