package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/movigo/movie-catalog/internal/config"
	"github.com/movigo/movie-catalog/internal/database"
	"github.com/movigo/movie-catalog/internal/handler"
	"github.com/movigo/movie-catalog/internal/queue"
	"github.com/movigo/movie-catalog/internal/repository"
	"github.com/movigo/movie-catalog/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Print("redis unavailable; response cache and rate limiting disabled")
	}

	h := router.Handlers{
		People: handler.NewPersonHandler(repository.NewPersonRepo(db)),
		Movies: handler.NewMovieHandler(repository.NewMovieRepo(db)),
		Auth:   handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)),
		Users:  handler.NewUserAdminHandler(repository.NewUserRepo(db)),
	}

	e := echo.New()
	router.Register(e, cfg, h, rdb)

	// Background consumer mirroring catalog changes into logs/catalog.log.
	go func() {
		if err := queue.StartCatalogConsumer(); err != nil {
			log.Printf("catalog consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
