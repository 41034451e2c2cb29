package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is an operating cost independent of batches and sales — only used
// for net-profit reporting.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Item        string          `gorm:"not null"`
	Cost        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ExpenseDate time.Time       `gorm:"type:date;not null"`
	Notes       string

	Archived       bool `gorm:"not null;default:false;index"`
	ArchivedAt     *time.Time
	ArchivedReason string
	ArchivedBy     *uuid.UUID `gorm:"type:uuid"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
