package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/services"
)

type FlashcardController struct {
	service *services.FlashcardService
	log     *logger.Logger
}

func NewFlashcardController(service *services.FlashcardService, log *logger.Logger) *FlashcardController {
	return &FlashcardController{service: service, log: log}
}

type CreateFlashcardsInput struct {
	Flashcards []services.CreateFlashcardInput `json:"flashcards" binding:"required,min=1,max=100,dive"`
}

type UpdateFlashcardInput struct {
	Front string `json:"front" binding:"required,max=200"`
	Back  string `json:"back" binding:"required,max=500"`
}

// Create handles POST /api/flashcards (batch).
func (fc *FlashcardController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateFlashcardsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	cards, err := fc.service.CreateFlashcards(c.Request.Context(), userID, input.Flashcards)
	if err != nil {
		var valErr *services.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "details": valErr.Message})
			return
		}
		fc.log.Error("failed to create flashcards", err, "user_id", userID.String())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"flashcards": cards})
}

// List handles GET /api/flashcards with pagination, sorting and filters.
func (fc *FlashcardController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var query services.ListFlashcardsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	list, err := fc.service.ListFlashcards(c.Request.Context(), userID, query)
	if err != nil {
		fc.log.Error("failed to list flashcards", err, "user_id", userID.String())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (fc *FlashcardController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := flashcardID(c)
	if !ok {
		return
	}

	card, err := fc.service.GetFlashcard(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flashcard not found"})
			return
		}
		fc.log.Error("failed to fetch flashcard", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, card)
}

// Update handles PUT /api/flashcards/:id; only front and back change.
func (fc *FlashcardController) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := flashcardID(c)
	if !ok {
		return
	}

	var input UpdateFlashcardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	card, err := fc.service.UpdateFlashcard(c.Request.Context(), userID, id, input.Front, input.Back)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flashcard not found"})
			return
		}
		fc.log.Error("failed to update flashcard", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, card)
}

func (fc *FlashcardController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := flashcardID(c)
	if !ok {
		return
	}

	if err := fc.service.DeleteFlashcard(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flashcard not found"})
			return
		}
		fc.log.Error("failed to delete flashcard", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func flashcardID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flashcard ID"})
		return 0, false
	}
	return uint(id), true
}
