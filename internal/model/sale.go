package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the derived three-state summary of a sale's payment
// completeness. It is never set directly by callers — ComputePaymentStatus
// is the single source of truth.
type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPaid    PaymentStatus = "PAID"
)

// BottleType values accepted on sale lines.
const (
	Bottle25cl = "25CL"
	Bottle75cl = "75CL"
	Bottle1L   = "1L"
	Bottle4L   = "4L"
)

// ComputePaymentStatus maps a sale's total and the sum of its payments to a
// status. Pure and idempotent: same inputs always yield the same status.
// Overpayment maps to PAID here — rejecting it is the write path's job.
func ComputePaymentStatus(totalAmount, totalPaid decimal.Decimal) PaymentStatus {
	switch {
	case totalPaid.IsZero():
		return StatusUnpaid
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return StatusPaid
	default:
		return StatusPartial
	}
}

// Sale is a transaction header aggregating one or more line items sold to a
// customer. Archived sales are soft-deleted: hidden from default listings but
// recoverable, preserving the audit trail.
type Sale struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	// CustomerName is the snapshot used for display and search; the customer
	// record is auto-created from it when no existing customer matches.
	CustomerName  string          `gorm:"not null;index"`
	SaleDate      time.Time       `gorm:"type:date;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(10);not null;default:'UNPAID'"`
	IsWholesale   bool            `gorm:"not null;default:false"`
	Notes         string

	// Soft delete
	Archived       bool `gorm:"not null;default:false;index"`
	ArchivedAt     *time.Time
	ArchivedReason string
	ArchivedBy     *uuid.UUID `gorm:"type:uuid"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Customer *Customer  `gorm:"foreignKey:CustomerID"`
	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Payments []Payment  `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// AmountPaid sums the loaded payments. Only meaningful when Payments were
// preloaded; the write path re-sums in SQL instead of trusting this.
func (s *Sale) AmountPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// AmountDue is the outstanding balance.
func (s *Sale) AmountDue() decimal.Decimal {
	return s.TotalAmount.Sub(s.AmountPaid())
}

// SaleItem is one line of a sale: a quantity of honey drawn from a batch,
// bottled in one size, at a unit price. Batches are referenced by lookup only;
// a batch cannot be deleted while sale lines reference it.
type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BottleType string          `gorm:"type:varchar(10);not null"`
	QuantityKg decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time

	Batch *Batch `gorm:"foreignKey:BatchID"`
}
