package models

import (
	"time"

	"github.com/google/uuid"
)

// Document holds an uploaded source file and its extracted text, which the
// user can feed into flashcard generation.
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	FileName      string    `gorm:"size:255;not null" json:"file_name"`
	FileURL       string    `gorm:"type:text" json:"file_url"`
	ExtractedText string    `gorm:"type:text" json:"extracted_text"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
