package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Archived  bool      `gorm:"default:false"`
	Users     []User    `gorm:"foreignKey:CompanyID"`
	Projects  []Project `gorm:"foreignKey:CompanyID"`
	Files     []File    `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
