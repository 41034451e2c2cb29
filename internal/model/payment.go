package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment method values.
const (
	MethodCash     = "CASH"
	MethodTransfer = "TRANSFER"
	MethodPOS      = "POS"
	MethodCheque   = "CHEQUE"
)

// Payment is an amount received against a specific sale. Payments are owned by
// exactly one sale; every create, amount edit, or delete re-derives the sale's
// payment status within the same transaction.
type Payment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method string          `gorm:"type:varchar(20);not null;default:'CASH'"`
	PaidAt time.Time       `gorm:"not null"`
	Notes  string

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}
