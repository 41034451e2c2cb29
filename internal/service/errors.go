package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the domain rules. Handlers map them to HTTP statuses
// with errors.Is / errors.As — services never see HTTP.
var (
	// ErrNotFound — requested record does not exist (or is hidden).
	ErrNotFound = errors.New("record not found")
	// ErrValidation — malformed input caught before any persistence.
	ErrValidation = errors.New("validation failed")
	// ErrOverpayment — payment would push total paid beyond the sale total.
	// Policy: rejected at entry rather than silently capped.
	ErrOverpayment = errors.New("payment exceeds balance due")
	// ErrConsistency — status recomputation could not resolve the sale. The
	// triggering transaction is aborted; callers get a generic failure.
	ErrConsistency = errors.New("sale state inconsistent")
	// ErrBatchInUse — batch deletion blocked while sale lines reference it.
	ErrBatchInUse = errors.New("batch is referenced by sales")
)

// InsufficientStockError blocks a sale line whose quantity exceeds the batch's
// remaining stock. The whole sale transaction rolls back.
type InsufficientStockError struct {
	BatchCode   string
	RequestedKg decimal.Decimal
	AvailableKg decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in batch %s: requested %s kg, %s kg available",
		e.BatchCode, e.RequestedKg.String(), e.AvailableKg.String())
}
