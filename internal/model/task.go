package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string
	StatusID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Deadline    time.Time `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Status   Status    `gorm:"foreignKey:StatusID;constraint:OnDelete:RESTRICT"`
	SubTasks []SubTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsOverdue reports whether the deadline has passed at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline.Before(now)
}
