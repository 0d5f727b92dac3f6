package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/drobyshev/leadmart/internal/server/http/handlers"
	"github.com/drobyshev/leadmart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	// SSE responses must stay uncompressed so each event flushes immediately.
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/leads/feed"})))

	authHandler := handlers.NewAuthHandler(facade)
	leadHandler := handlers.NewLeadHandler(facade)
	feedHandler := handlers.NewFeedHandler(facade)

	api := engine.Group("/api")

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	leads := api.Group("/leads")
	leads.POST("", leadHandler.Create)
	leads.GET("", middleware.OptionalAuth(facade), leadHandler.List)
	leads.GET("/feed", middleware.OptionalAuth(facade), feedHandler.Stream)

	buyer := leads.Group("")
	buyer.Use(middleware.AuthRequired(facade))
	buyer.POST("/:id/purchase", leadHandler.Purchase)

	admin := leads.Group("")
	admin.Use(middleware.AuthRequired(facade), middleware.AdminRequired())
	admin.PATCH("/:id/status", leadHandler.SetStatus)

	return engine
}
