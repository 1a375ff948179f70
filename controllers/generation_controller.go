package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/models"
	"github.com/tenxcards/backend/services"
)

// FlashcardGenerator is what this controller needs from the generation
// pipeline; the concrete service is injected in routes.
type FlashcardGenerator interface {
	GenerateFlashcards(ctx context.Context, userID uuid.UUID, sourceText string) (*services.GenerationDTO, error)
}

type GenerationController struct {
	generator FlashcardGenerator
	db        *gorm.DB
	log       *logger.Logger
}

func NewGenerationController(generator FlashcardGenerator, db *gorm.DB, log *logger.Logger) *GenerationController {
	return &GenerationController{generator: generator, db: db, log: log}
}

type CreateGenerationInput struct {
	SourceText string `json:"source_text" binding:"required,min=1000,max=10000"`
}

// Create handles POST /api/generations.
func (gc *GenerationController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateGenerationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	dto, err := gc.generator.GenerateFlashcards(c.Request.Context(), userID, input.SourceText)
	if err != nil {
		var valErr *services.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": valErr.Message})
			return
		}
		gc.log.Error("generation request failed", err, "user_id", userID.String())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, dto)
}

// List handles GET /api/generations.
func (gc *GenerationController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var generations []models.Generation
	if err := gc.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&generations).Error; err != nil {
		gc.log.Error("failed to list generations", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": generations, "count": len(generations)})
}

// Get handles GET /api/generations/:id.
func (gc *GenerationController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid generation ID"})
		return
	}

	var generation models.Generation
	if err := gc.db.
		Where("id = ? AND user_id = ?", id, userID).
		First(&generation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
			return
		}
		gc.log.Error("failed to fetch generation", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, generation)
}
