package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/models"
)

type CreateFlashcardInput struct {
	Front        string `json:"front" binding:"required,max=200"`
	Back         string `json:"back" binding:"required,max=500"`
	Source       string `json:"source" binding:"required,oneof=manual ai-full ai-edited"`
	GenerationID *uint  `json:"generation_id"`
}

type ListFlashcardsQuery struct {
	Page         int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit        int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
	Sort         string `form:"sort,default=created_at" binding:"omitempty,oneof=created_at updated_at front back"`
	Order        string `form:"order,default=desc" binding:"omitempty,oneof=asc desc"`
	Source       string `form:"source" binding:"omitempty,oneof=manual ai-full ai-edited"`
	GenerationID *uint  `form:"generation_id"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type FlashcardListDTO struct {
	Data       []models.Flashcard `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// FlashcardService owns flashcard CRUD. Every query filters on user_id so no
// row crosses user boundaries.
type FlashcardService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlashcardService(db *gorm.DB, log *logger.Logger) *FlashcardService {
	return &FlashcardService{db: db, log: log}
}

// validateFlashcardInputs enforces the source/generation_id invariant:
// manual cards carry no generation reference, AI cards must carry one.
func validateFlashcardInputs(inputs []CreateFlashcardInput) error {
	for i, in := range inputs {
		switch in.Source {
		case models.SourceManual:
			if in.GenerationID != nil {
				return &ValidationError{Message: fmt.Sprintf("flashcard %d: manual flashcards cannot reference a generation", i)}
			}
		case models.SourceAIFull, models.SourceAIEdited:
			if in.GenerationID == nil {
				return &ValidationError{Message: fmt.Sprintf("flashcard %d: %s flashcards must reference a generation", i, in.Source)}
			}
		default:
			return &ValidationError{Message: fmt.Sprintf("flashcard %d: unknown source %q", i, in.Source)}
		}
	}
	return nil
}

func (s *FlashcardService) CreateFlashcards(ctx context.Context, userID uuid.UUID, inputs []CreateFlashcardInput) ([]models.Flashcard, error) {
	if err := validateFlashcardInputs(inputs); err != nil {
		return nil, err
	}

	// Referenced generations must exist and belong to the caller.
	generationIDs := map[uint]struct{}{}
	for _, in := range inputs {
		if in.GenerationID != nil {
			generationIDs[*in.GenerationID] = struct{}{}
		}
	}
	if len(generationIDs) > 0 {
		ids := make([]uint, 0, len(generationIDs))
		for id := range generationIDs {
			ids = append(ids, id)
		}
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Generation{}).
			Where("id IN ? AND user_id = ?", ids, userID).
			Count(&count).Error; err != nil {
			return nil, &DatabaseError{Op: "verify generations", Err: err}
		}
		if count != int64(len(ids)) {
			return nil, &ValidationError{Message: "generation_id does not reference one of your generations"}
		}
	}

	cards := make([]models.Flashcard, 0, len(inputs))
	for _, in := range inputs {
		cards = append(cards, models.Flashcard{
			UserID:       userID,
			Front:        in.Front,
			Back:         in.Back,
			Source:       in.Source,
			GenerationID: in.GenerationID,
		})
	}

	if err := s.db.WithContext(ctx).Create(&cards).Error; err != nil {
		s.log.Error("failed to create flashcards", err, "count", len(cards))
		return nil, &DatabaseError{Op: "insert flashcards", Err: err}
	}
	return cards, nil
}

func (s *FlashcardService) ListFlashcards(ctx context.Context, userID uuid.UUID, q ListFlashcardsQuery) (*FlashcardListDTO, error) {
	query := s.db.WithContext(ctx).Model(&models.Flashcard{}).Where("user_id = ?", userID)
	if q.Source != "" {
		query = query.Where("source = ?", q.Source)
	}
	if q.GenerationID != nil {
		query = query.Where("generation_id = ?", *q.GenerationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, &DatabaseError{Op: "count flashcards", Err: err}
	}

	var cards []models.Flashcard
	if err := query.
		Order(q.Sort + " " + q.Order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&cards).Error; err != nil {
		return nil, &DatabaseError{Op: "list flashcards", Err: err}
	}

	return &FlashcardListDTO{
		Data:       cards,
		Pagination: Pagination{Page: q.Page, Limit: q.Limit, Total: total},
	}, nil
}

func (s *FlashcardService) GetFlashcard(ctx context.Context, userID uuid.UUID, id uint) (*models.Flashcard, error) {
	var card models.Flashcard
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateFlashcard changes front/back only; source and generation linkage are
// immutable after creation.
func (s *FlashcardService) UpdateFlashcard(ctx context.Context, userID uuid.UUID, id uint, front, back string) (*models.Flashcard, error) {
	card, err := s.GetFlashcard(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	card.Front = front
	card.Back = back
	if err := s.db.WithContext(ctx).
		Model(card).
		Updates(map[string]interface{}{"front": front, "back": back}).Error; err != nil {
		return nil, &DatabaseError{Op: "update flashcard", Err: err}
	}
	return card, nil
}

func (s *FlashcardService) DeleteFlashcard(ctx context.Context, userID uuid.UUID, id uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Flashcard{})
	if result.Error != nil {
		return &DatabaseError{Op: "delete flashcard", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
