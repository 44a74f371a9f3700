package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIReviewLog is an immutable record of one AI review invocation.
type AIReviewLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;index"`
	RequestedBy  uuid.UUID `gorm:"type:uuid;not null"`
	Model        string    `gorm:"not null"`
	PromptInputs JSONB     `gorm:"type:jsonb"`
	Prompt       string    `gorm:"type:text"`
	Response     string    `gorm:"type:text"`
	CreatedAt    time.Time
}

func (l *AIReviewLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
