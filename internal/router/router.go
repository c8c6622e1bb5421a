// Package router defines how HTTP routes are registered for the API.
// Reads are public (the catalog is browsable without an account) while
// every write requires a valid access token, matching the
// authenticated-or-read-only policy of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/movigo/movie-catalog/internal/config"
	"github.com/movigo/movie-catalog/internal/handler"
	"github.com/movigo/movie-catalog/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	People *handler.PersonHandler
	Movies *handler.MovieHandler
	Auth   *handler.AuthHandler
	Users  *handler.UserAdminHandler
}

// Register attaches all routes to the Echo instance.  rdb may be nil;
// the cache and rate-limit middleware then degrade to pass-throughs.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	// Per-client request budget across the whole API.
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	e.GET("/v1/healthz", handler.Health)

	jwt := middleware.JWTAuth(cfg.JWTSecret)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// People: public reads, authenticated writes.
	e.GET("/v1/people", h.People.List, cache)
	e.GET("/v1/directors", h.People.ListDirectors, cache)
	e.GET("/v1/actors", h.People.ListActors, cache)
	e.GET("/v1/people/:id", h.People.Get, cache)
	e.POST("/v1/people", h.People.Create, jwt)
	e.PUT("/v1/people/:id", h.People.Update, jwt)
	e.DELETE("/v1/people/:id", h.People.Delete, jwt)

	// Movies: public reads, authenticated writes.
	e.GET("/v1/movies", h.Movies.List, cache)
	e.GET("/v1/movies/:id", h.Movies.Get, cache)
	e.POST("/v1/movies", h.Movies.Create, jwt)
	e.PUT("/v1/movies/:id", h.Movies.Update, jwt)
	e.DELETE("/v1/movies/:id", h.Movies.Delete, jwt)

	// Fixed genre catalog for client-side choice lists.
	e.GET("/v1/genres", handler.Genres, cache)

	// Accounts and sessions.
	e.POST("/v1/user", h.Auth.Register)
	e.POST("/v1/auth", h.Auth.Login)
	e.POST("/v1/auth/refresh", h.Auth.Refresh)
	e.DELETE("/v1/auth/logout", h.Auth.Logout, jwt)
	e.GET("/v1/auth/me", h.Auth.Me, jwt)

	// Admin-only account collection.
	e.GET("/v1/users", h.Users.List, jwt, middleware.RequireAdmin())
}
