// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/giveaway-market/internal/config"
	"github.com/iliyamo/giveaway-market/internal/handler"
	"github.com/iliyamo/giveaway-market/internal/middleware"
)

// Handlers groups every handler the API serves.
type Handlers struct {
	Auth     *handler.AuthHandler
	Listings *handler.ListingHandler
	Requests *handler.RequestHandler
	Messages *handler.MessageHandler
	Posts    *handler.PostHandler
}

// Register sets up the full route table under /api, mirroring the paths
// the mobile client calls.  The rate limiter covers everything; the
// response cache fronts only the public browse endpoints; JWTAuth wraps
// everything that acts on behalf of a user.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	api := e.Group("/api")

	// Public routes: liveness, auth, browse.
	api.GET("/test", handler.Health)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/listings", h.Listings.List, cache)
	api.GET("/listings/:id", h.Listings.Get)
	api.GET("/posts", h.Posts.List, cache)
	api.GET("/posts/:id", h.Posts.Get)

	// Protected routes: everything that writes or is user-scoped.
	auth := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/me", h.Auth.Me)

	auth.POST("/listings", h.Listings.Create)

	auth.POST("/requests", h.Requests.Create)
	auth.GET("/requests/received", h.Requests.Received)
	auth.GET("/requests/sent", h.Requests.Sent)
	auth.PUT("/requests/:id", h.Requests.Decide)

	auth.POST("/messages", h.Messages.Send)
	auth.GET("/messages/conversations", h.Messages.Conversations)
	auth.GET("/messages/conversation/:listingId/:otherUserId", h.Messages.Conversation)
	auth.PUT("/messages/read/:listingId/:otherUserId", h.Messages.MarkRead)

	auth.POST("/posts", h.Posts.Create)
}
