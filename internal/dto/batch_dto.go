package dto

import "github.com/shopspring/decimal"

type BatchFilter struct {
	Active string `form:"active,default=true"` // true | false | all
	Search string `form:"search"`              // batch code or source, partial
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateBatchRequest struct {
	BatchCode     string           `json:"batch_code"     validate:"required"`
	Price         decimal.Decimal  `json:"price"          validate:"required"`
	TransportCost *decimal.Decimal `json:"transport_cost"`
	SupplyDate    string           `json:"supply_date"    validate:"omitempty,datetime=2006-01-02"`
	Source        string           `json:"source"`
	InitialKg     decimal.Decimal  `json:"initial_kg"     validate:"required"`
	Bottles25cl   int              `json:"bottles_25cl"   validate:"min=0"`
	Bottles75cl   int              `json:"bottles_75cl"   validate:"min=0"`
	Bottles1L     int              `json:"bottles_1l"     validate:"min=0"`
	Bottles4L     int              `json:"bottles_4l"     validate:"min=0"`
	Notes         string           `json:"notes"`
}

// UpdateBatchRequest — nil pointers mean "unchanged". Every applied change on a
// tracked field lands in the audit trail.
type UpdateBatchRequest struct {
	Price         *decimal.Decimal `json:"price"`
	TransportCost *decimal.Decimal `json:"transport_cost"`
	SupplyDate    *string          `json:"supply_date" validate:"omitempty,datetime=2006-01-02"`
	Source        *string          `json:"source"`
	Bottles25cl   *int             `json:"bottles_25cl" validate:"omitempty,min=0"`
	Bottles75cl   *int             `json:"bottles_75cl" validate:"omitempty,min=0"`
	Bottles1L     *int             `json:"bottles_1l"   validate:"omitempty,min=0"`
	Bottles4L     *int             `json:"bottles_4l"   validate:"omitempty,min=0"`
	Notes         *string          `json:"notes"`
}

type AdjustStockRequest struct {
	DeltaKg decimal.Decimal `json:"delta_kg" validate:"required"`
	Reason  string          `json:"reason"   validate:"required,min=3"`
}

type BatchResponse struct {
	ID            string           `json:"id"`
	BatchCode     string           `json:"batch_code"`
	Price         decimal.Decimal  `json:"price"`
	TransportCost *decimal.Decimal `json:"transport_cost,omitempty"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	SupplyDate    string           `json:"supply_date,omitempty"`
	Source        string           `json:"source"`
	InitialKg     decimal.Decimal  `json:"initial_kg"`
	RemainingKg   decimal.Decimal  `json:"remaining_kg"`
	Bottles25cl   int              `json:"bottles_25cl"`
	Bottles75cl   int              `json:"bottles_75cl"`
	Bottles1L     int              `json:"bottles_1l"`
	Bottles4L     int              `json:"bottles_4l"`
	TotalBottles  int              `json:"total_bottles"`
	Notes         string           `json:"notes,omitempty"`
	Active        bool             `json:"active"`
	CreatedAt     string           `json:"created_at"`
}

type BatchListResponse struct {
	Data  []BatchResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type StockMovementResponse struct {
	ID         string          `json:"id"`
	BatchID    string          `json:"batch_id"`
	Type       string          `json:"type"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	KgBefore   decimal.Decimal `json:"kg_before"`
	KgAfter    decimal.Decimal `json:"kg_after"`
	Reason     string          `json:"reason,omitempty"`
	SaleID     *string         `json:"sale_id,omitempty"`
	CreatedAt  string          `json:"created_at"`
}
