package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Canonical evaluation values. The string enum is the only supported
// representation; boolean thumbs up/down is not accepted on the wire.
const (
	EvaluationPositive = "positive"
	EvaluationNegative = "negative"
)

type Feedback struct {
	ID         string `gorm:"primaryKey;size:36"`
	OwnerID    uint   `gorm:"not null;index"` // Never changes after creation
	Owner      User   `gorm:"foreignKey:OwnerID"`
	Content    string `gorm:"type:text;not null"`
	Evaluation string `gorm:"not null;check:evaluation IN ('positive','negative')"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCreate assigns a fresh UUID when the record has no identifier yet
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
