package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectDraft           ProjectStatus = "draft"
	ProjectPendingApproval ProjectStatus = "pending_approval"
	ProjectApproved        ProjectStatus = "approved"
	ProjectRejected        ProjectStatus = "rejected"
)

func IsValidProjectStatus(status ProjectStatus) bool {
	switch status {
	case ProjectDraft, ProjectPendingApproval, ProjectApproved, ProjectRejected:
		return true
	default:
		return false
	}
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Company     *Company  `gorm:"foreignKey:CompanyID"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner       *User     `gorm:"foreignKey:OwnerID"`
	Name        string    `gorm:"not null"`
	Description string
	Details     string `gorm:"type:text"`
	FocusAreas  StringList
	Status      ProjectStatus `gorm:"type:varchar(30);default:'draft';index"`
	Completed   bool          `gorm:"default:false"`
	Archived    bool          `gorm:"default:false"`
	Deadline    *time.Time
	Questions   []Question        `gorm:"foreignKey:ProjectID"`
	Approvals   []ApprovalRequest `gorm:"foreignKey:ProjectID"`
	Versions    []ProjectVersion  `gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectVersion is an immutable snapshot of a project taken before each
// update. Rows are only ever inserted.
type ProjectVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index"`
	VersionNumber int       `gorm:"not null"`
	Name          string
	Description   string
	Details       string        `gorm:"type:text"`
	Status        ProjectStatus `gorm:"type:varchar(30)"`
	Deadline      *time.Time
	ChangedBy     uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
}

func (v *ProjectVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Narrative is compiled free text assembled from a project's questions and
// answers.
type Narrative struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	CompiledBy uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time
}

func (n *Narrative) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
