package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock movement types.
const (
	MovementSale           = "sale"
	MovementRestoreArchive = "restore_archive"
	MovementEditDelta      = "edit_delta"
	MovementAdjust         = "adjust"
)

// StockMovement records every change to a batch's remaining quantity.
// Created automatically when selling, archiving/restoring a sale, editing a
// sale line, or adjusting stock manually. Rows are immutable.
type StockMovement struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BatchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type    string    `gorm:"not null"`
	// QuantityKg is positive for stock returning, negative for stock leaving.
	QuantityKg decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	KgBefore   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	KgAfter    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Reason     string
	SaleID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time

	Batch *Batch `gorm:"foreignKey:BatchID"`
}
