package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/morinaga/stockbot-backend/internal/handlers"
	"github.com/morinaga/stockbot-backend/internal/middleware"
)

type RouterConfig struct {
	WebhookHandler      *handlers.WebhookHandler
	SignatureMiddleware *middleware.SignatureMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Line-Signature"},
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/webhook", cfg.SignatureMiddleware.Verify(), cfg.WebhookHandler.Handle)
	}

	return router
}
