package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleViewer   Role = "viewer"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
)

func IsValidRole(role Role) bool {
	switch role {
	case RoleViewer, RoleEditor, RoleAdmin, RoleApprover:
		return true
	default:
		return false
	}
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"type:varchar(20);default:'viewer'"`
	// New registrations stay unapproved until an admin assigns a role.
	Approved  bool       `gorm:"default:false"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	Company   *Company   `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
