package dto

import "github.com/shopspring/decimal"

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method" validate:"required,oneof=CASH TRANSFER POS CHEQUE"`
	Notes  string          `json:"notes"`
}

type UpdatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method" validate:"omitempty,oneof=CASH TRANSFER POS CHEQUE"`
	Notes  *string         `json:"notes"`
}

type PaymentResponse struct {
	ID     string          `json:"id"`
	SaleID string          `json:"sale_id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt string          `json:"paid_at"`
	Notes  string          `json:"notes,omitempty"`
}
