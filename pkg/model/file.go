package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File holds uploaded document bytes in-row. Uploads are size-capped by
// config before they reach the store.
type File struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null"`
	Uploader   *User     `gorm:"foreignKey:UploaderID"`
	Filename   string    `gorm:"not null"`
	MimeType   string    `gorm:"not null"`
	Size       int64     `gorm:"not null"`
	Data       []byte    `gorm:"type:bytea;not null"`
	CreatedAt  time.Time
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
