package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tenxcards/backend/models"
)

// GenerationStore is the persistence surface of the generation pipeline.
// Narrow on purpose so tests can swap in fakes.
type GenerationStore interface {
	CreateGeneration(ctx context.Context, generation *models.Generation) error
	CreateErrorLog(ctx context.Context, entry *models.GenerationErrorLog) error
}

// ErrorLogStore is the subset needed by the transport layer.
type ErrorLogStore interface {
	CreateErrorLog(ctx context.Context, entry *models.GenerationErrorLog) error
}

type gormGenerationStore struct {
	db *gorm.DB
}

func NewGenerationStore(db *gorm.DB) GenerationStore {
	return &gormGenerationStore{db: db}
}

func (s *gormGenerationStore) CreateGeneration(ctx context.Context, generation *models.Generation) error {
	if err := s.db.WithContext(ctx).Create(generation).Error; err != nil {
		return &DatabaseError{Op: "insert generation", Err: err}
	}
	return nil
}

func (s *gormGenerationStore) CreateErrorLog(ctx context.Context, entry *models.GenerationErrorLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return &DatabaseError{Op: "insert generation error log", Err: err}
	}
	return nil
}
