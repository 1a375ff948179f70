package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard source values. AI-generated cards keep a reference to the
// generation that produced them; manual cards have none.
const (
	SourceManual   = "manual"
	SourceAIFull   = "ai-full"
	SourceAIEdited = "ai-edited"
)

type Flashcard struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User         User        `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Front        string      `gorm:"size:200;not null" json:"front"`
	Back         string      `gorm:"size:500;not null" json:"back"`
	Source       string      `gorm:"type:varchar(20);not null" json:"source"`
	GenerationID *uint       `gorm:"index" json:"generation_id"`
	Generation   *Generation `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
