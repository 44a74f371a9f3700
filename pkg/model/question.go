package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionStatus string

const (
	QuestionPending    QuestionStatus = "pending"
	QuestionInProgress QuestionStatus = "in-progress"
	QuestionCompleted  QuestionStatus = "completed"
	QuestionSubmitted  QuestionStatus = "submitted"
	QuestionInReview   QuestionStatus = "in-review"
)

func IsValidQuestionStatus(status QuestionStatus) bool {
	switch status {
	case QuestionPending, QuestionInProgress, QuestionCompleted, QuestionSubmitted, QuestionInReview:
		return true
	default:
		return false
	}
}

type LengthUnit string

const (
	UnitChars LengthUnit = "chars"
	UnitWords LengthUnit = "words"
)

type Question struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Project    *Project  `gorm:"foreignKey:ProjectID"`
	Text       string         `gorm:"type:text;not null"`
	Answer     string         `gorm:"type:text"`
	Status     QuestionStatus `gorm:"type:varchar(20);default:'pending'"`
	AssigneeID *uuid.UUID     `gorm:"type:uuid;index"`
	Assignee   *User          `gorm:"foreignKey:AssigneeID"`
	// MaxLength of 0 means no limit.
	MaxLength      int                     `gorm:"default:0"`
	LengthUnit     LengthUnit              `gorm:"type:varchar(10);default:'chars'"`
	AssignmentLogs []QuestionAssignmentLog `gorm:"foreignKey:QuestionID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuestionAssignmentLog is an immutable audit row recording one
// reassignment. Rows are only ever inserted.
type QuestionAssignmentLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	QuestionID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssignedByID uuid.UUID  `gorm:"type:uuid;not null"`
	AssignedBy   *User      `gorm:"foreignKey:AssignedByID"`
	AssignedToID *uuid.UUID `gorm:"type:uuid"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID"`
	PreviousID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

func (l *QuestionAssignmentLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
