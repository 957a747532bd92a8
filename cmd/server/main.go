package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/config"
	"github.com/iliyamo/giveaway-market/internal/database"
	"github.com/iliyamo/giveaway-market/internal/handler"
	"github.com/iliyamo/giveaway-market/internal/lifecycle"
	"github.com/iliyamo/giveaway-market/internal/queue"
	"github.com/iliyamo/giveaway-market/internal/repository"
	"github.com/iliyamo/giveaway-market/internal/router"
	"github.com/iliyamo/giveaway-market/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	listings := repository.NewListingRepo(db)
	requests := repository.NewRequestRepo(db)
	messages := repository.NewMessageRepo(db)
	posts := repository.NewPostRepo(db)

	store := repository.NewReservationStore(db, listings, requests)
	manager := lifecycle.New(store, time.Duration(cfg.ReserveTTLMin)*time.Minute)

	// Background workers: the expiry sweep and the event consumer run
	// for the life of the process and stop on shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweeper.New(store, cfg.SweepInterval).Run(ctx)
	go queue.StartReservationConsumer(ctx)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Listings: handler.NewListingHandler(listings, users),
		Requests: handler.NewRequestHandler(manager, requests, users, listings),
		Messages: handler.NewMessageHandler(messages, listings, users),
		Posts:    handler.NewPostHandler(posts, users),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutCtx)
	}()

	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
