package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a buyer. Created explicitly, or implicitly when a sale names a
// customer not yet in the system.
type Customer struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name  string    `gorm:"uniqueIndex;not null"`
	Phone string
	Email string

	Archived   bool `gorm:"not null;default:false"`
	ArchivedAt *time.Time

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
