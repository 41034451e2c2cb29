package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// batchCodePattern: supplier letter + two-digit year + G + two-digit group,
// e.g. "A24G02".
var batchCodePattern = regexp.MustCompile(`^[A-Z]\d{2}G\d{2}$`)

// Batch is one jerrycan lot of honey acquired from a supplier.
// RemainingKg is maintained exclusively by the stock adjustment path —
// sale lines decrement it, archiving a sale restores it.
type Batch struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Uniqueness is enforced only among active batches (partial index):
	// deactivating a batch frees its code for a future lot.
	BatchCode string `gorm:"not null;index:idx_batches_active_code,unique,where:active"`
	// Price is the purchase price for the jerrycan.
	Price         decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	TransportCost *decimal.Decimal `gorm:"type:decimal(10,2)"`
	SupplyDate    *time.Time       `gorm:"type:date"`
	Source        string
	InitialKg     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	RemainingKg   decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// Bottling breakdown per size bucket.
	Bottles25cl int `gorm:"not null;default:0"`
	Bottles75cl int `gorm:"not null;default:0"`
	Bottles1L   int `gorm:"not null;default:0"`
	Bottles4L   int `gorm:"not null;default:0"`

	Notes  string
	Active bool `gorm:"not null;default:true"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization (batches, not batchs).
func (Batch) TableName() string { return "batches" }

// ValidBatchCode reports whether code matches the structured batch id format.
func ValidBatchCode(code string) bool { return batchCodePattern.MatchString(code) }

// TotalCost is price plus transport cost. Transport is optional.
func (b *Batch) TotalCost() decimal.Decimal {
	if b.TransportCost == nil {
		return b.Price
	}
	return b.Price.Add(*b.TransportCost)
}

// GroupNumber extracts the trailing group segment, e.g. "G02" from "A24G02".
func (b *Batch) GroupNumber() string {
	if len(b.BatchCode) < 3 {
		return ""
	}
	return b.BatchCode[len(b.BatchCode)-3:]
}

// TotalBottles is the bottle count across all size buckets.
func (b *Batch) TotalBottles() int {
	return b.Bottles25cl + b.Bottles75cl + b.Bottles1L + b.Bottles4L
}
