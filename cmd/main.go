package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/morinaga/stockbot-backend/internal/clients/line"
	redisclient "github.com/morinaga/stockbot-backend/internal/clients/redis"
	"github.com/morinaga/stockbot-backend/internal/db"
	"github.com/morinaga/stockbot-backend/internal/handlers"
	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/middleware"
	"github.com/morinaga/stockbot-backend/internal/repos"
	"github.com/morinaga/stockbot-backend/internal/server"
	"github.com/morinaga/stockbot-backend/internal/services"
	"github.com/morinaga/stockbot-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Database
	dbService, err := db.NewService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	stockGroupRepo := repos.NewStockGroupRepo(theDB, log)
	stockRepo := repos.NewStockRepo(theDB, log)
	messageRepo := repos.NewMessageRepo(theDB, log)
	stateRepo := repos.NewConversationStateRepo(theDB, log)

	// Clients
	log.Info("Setting up clients from main...")
	lineClient, err := line.NewClient(log)
	if err != nil {
		log.Error("Could not init line client", "error", err)
		os.Exit(1)
	}
	deduper, err := redisclient.NewEventDeduper(log)
	if err != nil {
		log.Warn("Event dedup disabled", "error", err)
		deduper = nil
	}

	// Services
	log.Info("Setting up services from main...")
	userService := services.NewUserService(theDB, log, userRepo)
	stockService := services.NewStockService(theDB, log, stockGroupRepo, stockRepo, messageRepo, stateRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	webhookHandler := handlers.NewWebhookHandler(log, userService, stockService, lineClient, deduper)

	// Middleware
	channelSecret := utils.GetEnv("LINE_CHANNEL_SECRET", "", log)
	signatureMiddleware := middleware.NewSignatureMiddleware(log, channelSecret)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		WebhookHandler:      webhookHandler,
		SignatureMiddleware: signatureMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
