package main

import (
	"log"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tenxcards/backend/config"
	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/routes"
	"github.com/tenxcards/backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, reading configuration from environment")
	}

	appLogger, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatal("cannot initialize logger: ", err)
	}
	defer appLogger.Sync()

	config.InitDB()

	store := services.NewGenerationStore(config.DB)

	// A missing gateway API key is a construction-time failure on purpose;
	// the service must not come up half-working.
	openRouter, err := services.NewOpenRouterService(services.OpenRouterConfig{
		APIKey:  os.Getenv("OPENROUTER_API_KEY"),
		BaseURL: os.Getenv("OPENROUTER_BASE_URL"),
		SiteURL: os.Getenv("PUBLIC_SITE_URL"),
		Store:   store,
		Logger:  appLogger.With("context", "OpenRouter"),
	})
	if err != nil {
		appLogger.Error("cannot initialize OpenRouter client", err)
		os.Exit(1)
	}

	generationService := services.NewGenerationService(openRouter, store, appLogger.With("context", "Generation"))
	flashcardService := services.NewFlashcardService(config.DB, appLogger.With("context", "Flashcards"))

	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	allowedOrigin := os.Getenv("PUBLIC_SITE_URL")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{allowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, routes.RouterConfig{
		DB:         config.DB,
		Logger:     appLogger,
		Generator:  generationService,
		Flashcards: flashcardService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	appLogger.Info("server listening", "port", port)
	if err := r.Run(":" + port); err != nil {
		appLogger.Error("server stopped", err)
		os.Exit(1)
	}
}
