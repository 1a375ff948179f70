package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/models"
	"github.com/tenxcards/backend/services"
	"github.com/tenxcards/backend/utils"
)

type DocumentController struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentController(db *gorm.DB, log *logger.Logger) *DocumentController {
	return &DocumentController{db: db, log: log}
}

// Upload handles POST /api/documents: extract text from the uploaded file,
// keep the original in storage and persist the document row. The extracted
// text is what users later submit to generation.
func (dc *DocumentController) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}

	text, err := services.ExtractText(fileHeader)
	if err != nil {
		var valErr *services.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message})
			return
		}
		dc.log.Error("failed to extract document text", err, "file", fileHeader.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document contains no extractable text"})
		return
	}

	document := models.Document{
		ID:            uuid.New(),
		UserID:        userID,
		FileName:      fileHeader.Filename,
		ExtractedText: text,
	}

	fileURL, err := utils.UploadDocumentToStorage(fileHeader, document.ID.String())
	if err != nil {
		dc.log.Error("failed to upload document to storage", err, "file", fileHeader.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	document.FileURL = fileURL

	if err := dc.db.Create(&document).Error; err != nil {
		dc.log.Error("failed to persist document", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": document})
}

func (dc *DocumentController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var documents []models.Document
	if err := dc.db.
		Select("id", "user_id", "file_name", "file_url", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		dc.log.Error("failed to list documents", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": documents, "count": len(documents)})
}

func (dc *DocumentController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var document models.Document
	if err := dc.db.
		Where("id = ? AND user_id = ?", documentID, userID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		dc.log.Error("failed to fetch document", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, document)
}

func (dc *DocumentController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	result := dc.db.
		Where("id = ? AND user_id = ?", documentID, userID).
		Delete(&models.Document{})
	if result.Error != nil {
		dc.log.Error("failed to delete document", result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
