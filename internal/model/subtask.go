package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubTask struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string
	StatusID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Deadline    time.Time `gorm:"not null"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`
	// Set once on insert; updates never write it.
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create"`

	Status Status `gorm:"foreignKey:StatusID;constraint:OnDelete:RESTRICT"`
	Task   Task   `gorm:"foreignKey:TaskID"`
}

func (SubTask) TableName() string {
	return "subtasks"
}

func (s *SubTask) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *SubTask) IsOverdue(now time.Time) bool {
	return s.Deadline.Before(now)
}
