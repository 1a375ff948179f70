package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation records one AI generation call against a block of source text,
// regardless of how many proposals it yielded. Rows are never mutated.
type Generation struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User               User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	SourceTextLength   int       `gorm:"not null" json:"source_text_length"`
	SourceTextHash     string    `gorm:"size:64;not null" json:"source_text_hash"`
	Model              string    `gorm:"size:100;not null" json:"model"`
	GeneratedCount     int       `gorm:"not null" json:"generated_count"`
	GenerationDuration int64     `gorm:"not null" json:"generation_duration"`
	ConfidenceScore    *float64  `json:"confidence_score,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// GenerationErrorLog is an append-only record of a failed generation attempt.
type GenerationErrorLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User             User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	ErrorCode        string    `gorm:"type:varchar(30);not null" json:"error_code"`
	ErrorMessage     string    `gorm:"type:text;not null" json:"error_message"`
	Model            string    `gorm:"size:100;not null" json:"model"`
	SourceTextHash   string    `gorm:"size:64" json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}
