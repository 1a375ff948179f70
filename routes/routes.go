package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenxcards/backend/controllers"
	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/middleware"
	"github.com/tenxcards/backend/services"
)

type RouterConfig struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	Generator  controllers.FlashcardGenerator
	Flashcards *services.FlashcardService
}

func SetupRouter(r *gin.Engine, cfg RouterConfig) *gin.Engine {
	health := controllers.NewHealthController(cfg.DB)
	auth := controllers.NewAuthController(cfg.DB, cfg.Logger)
	generations := controllers.NewGenerationController(cfg.Generator, cfg.DB, cfg.Logger)
	flashcards := controllers.NewFlashcardController(cfg.Flashcards, cfg.Logger)
	documents := controllers.NewDocumentController(cfg.DB, cfg.Logger)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", health.Check)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/reset-password", auth.ResetPassword)
		authGroup.POST("/reset-password/confirm", auth.ConfirmResetPassword)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("/auth/change-password", auth.ChangePassword)

		authed.POST("/generations", generations.Create)
		authed.GET("/generations", generations.List)
		authed.GET("/generations/:id", generations.Get)

		authed.POST("/flashcards", flashcards.Create)
		authed.GET("/flashcards", flashcards.List)
		authed.GET("/flashcards/:id", flashcards.Get)
		authed.PUT("/flashcards/:id", flashcards.Update)
		authed.DELETE("/flashcards/:id", flashcards.Delete)

		authed.POST("/documents", documents.Upload)
		authed.GET("/documents", documents.List)
		authed.GET("/documents/:id", documents.Get)
		authed.DELETE("/documents/:id", documents.Delete)
	}

	return r
}
