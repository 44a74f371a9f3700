package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalRescinded ApprovalStatus = "rescinded"
)

type ApprovalRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Project     *Project       `gorm:"foreignKey:ProjectID"`
	RequesterID uuid.UUID      `gorm:"type:uuid;not null"`
	Requester   *User          `gorm:"foreignKey:RequesterID"`
	ApproverID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Approver    *User          `gorm:"foreignKey:ApproverID"`
	Status      ApprovalStatus `gorm:"type:varchar(20);default:'pending';index"`
	Comments    string         `gorm:"type:text"`
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
