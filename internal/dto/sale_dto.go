package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Search   string `form:"search"`                   // customer name, partial match
	Status   string `form:"status"`                   // UNPAID | PARTIAL | PAID
	Archived string `form:"archived,default=false"`   // false | true | all
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListItem struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	SaleDate      string          `json:"sale_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	PaymentStatus string          `json:"payment_status"`
	IsWholesale   bool            `json:"is_wholesale"`
	Archived      bool            `json:"archived"`
	CreatedAt     string          `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleListItem `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Requests ───────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	BatchID    string          `json:"batch_id"    validate:"required,uuid"`
	BottleType string          `json:"bottle_type" validate:"required,oneof=25CL 75CL 1L 4L"`
	QuantityKg decimal.Decimal `json:"quantity_kg" validate:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"  validate:"required"`
}

type CreateSaleRequest struct {
	// CustomerName auto-creates the customer when no record matches the name.
	CustomerName string            `json:"customer_name" validate:"required,min=2"`
	SaleDate     string            `json:"sale_date"     validate:"omitempty,datetime=2006-01-02"`
	Items        []SaleItemRequest `json:"items"         validate:"required,min=1,dive"`
	IsWholesale  bool              `json:"is_wholesale"`
	Notes        string            `json:"notes"`
}

// UpdateSaleItemRequest edits one existing line; the stock delta (new−old) is
// applied to the batch.
type UpdateSaleItemRequest struct {
	ItemID     string          `json:"item_id"     validate:"required,uuid"`
	QuantityKg decimal.Decimal `json:"quantity_kg" validate:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"  validate:"required"`
}

type UpdateSaleRequest struct {
	CustomerName string                  `json:"customer_name" validate:"omitempty,min=2"`
	IsWholesale  *bool                   `json:"is_wholesale"`
	Notes        *string                 `json:"notes"`
	Items        []UpdateSaleItemRequest `json:"items" validate:"omitempty,dive"`
}

type ArchiveSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Responses ──────────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID         string          `json:"id"`
	BatchID    string          `json:"batch_id"`
	BatchCode  string          `json:"batch_code"`
	BottleType string          `json:"bottle_type"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	SaleDate      string             `json:"sale_date"`
	Items         []SaleItemResponse `json:"items"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	AmountDue     decimal.Decimal    `json:"amount_due"`
	PaymentStatus string             `json:"payment_status"`
	IsWholesale   bool               `json:"is_wholesale"`
	Notes         string             `json:"notes"`
	Payments      []PaymentResponse  `json:"payments"`
	Archived      bool               `json:"archived"`
	ArchivedReason string            `json:"archived_reason,omitempty"`
	CreatedAt     string             `json:"created_at"`
}
