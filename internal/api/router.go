package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Ralph2001/marketplace/internal/api/handlers"
	"github.com/Ralph2001/marketplace/internal/api/middleware"
	"github.com/Ralph2001/marketplace/internal/config"
	"github.com/Ralph2001/marketplace/internal/email"
	"github.com/Ralph2001/marketplace/internal/realtime"
	"github.com/Ralph2001/marketplace/internal/services"
	"github.com/Ralph2001/marketplace/internal/storage"
)

// SetupRouter wires the services, middleware and handlers into the Gin engine.
func SetupRouter(
	cfg *config.Config,
	db *mongo.Database,
	sender email.Sender,
	store storage.IObjectStorage,
	hub *realtime.Hub,
	enqueuer handlers.ImageEnqueuer,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg.AppURL))

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	router.Use(rateLimiter.Limit())

	listingService := services.NewListingService(db, cfg)
	messageService := services.NewMessageService(db, cfg, sender, hub)
	userService := services.NewUserService(db, cfg)

	listingHandler := handlers.NewListingHandler(cfg, listingService, messageService, store, enqueuer)
	messageHandler := handlers.NewMessageHandler(cfg, listingService, messageService, hub)
	authHandler := handlers.NewAuthHandler(cfg, userService)

	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuthMiddleware(cfg.JWTSecret)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		apiGroup.GET("/listings", listingHandler.ListListings)
		apiGroup.GET("/categories", listingHandler.ListCategories)
		apiGroup.GET("/items/:publicId", listingHandler.GetItem)
		apiGroup.GET("/items/:publicId/contact-state", optionalAuth, listingHandler.GetContactState)

		apiGroup.POST("/listings", requireAuth, listingHandler.CreateListing)

		apiGroup.POST("/send-email", optionalAuth, messageHandler.SendEmail)
		apiGroup.POST("/messages", requireAuth, messageHandler.CreateMessage)
		apiGroup.GET("/messages", requireAuth, messageHandler.ListMessages)
		apiGroup.GET("/notifications", requireAuth, messageHandler.ListNotifications)
		apiGroup.GET("/notifications/stream", requireAuth, messageHandler.StreamNotifications)

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/signin", authHandler.Signin)
			authGroup.POST("/signout", authHandler.Signout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
		}
	}

	return router
}
