package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default statuses seeded on first run. A task created without a status gets StatusToDo.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// DefaultStatuses is the zero-filled set reported by the statistics endpoint.
var DefaultStatuses = []string{StatusToDo, StatusInProgress, StatusDone}

type Status struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name string    `gorm:"size:50;uniqueIndex;not null"`
}

func (s *Status) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
