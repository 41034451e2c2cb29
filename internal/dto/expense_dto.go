package dto

import "github.com/shopspring/decimal"

type ExpenseFilter struct {
	Archived string `form:"archived,default=false"` // false | true | all
	From     string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type CreateExpenseRequest struct {
	Item        string          `json:"item"         validate:"required,min=2"`
	Cost        decimal.Decimal `json:"cost"         validate:"required"`
	ExpenseDate string          `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Notes       string          `json:"notes"`
}

type UpdateExpenseRequest struct {
	Item        *string          `json:"item" validate:"omitempty,min=2"`
	Cost        *decimal.Decimal `json:"cost"`
	ExpenseDate *string          `json:"expense_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       *string          `json:"notes"`
}

type ArchiveExpenseRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	Item        string          `json:"item"`
	Cost        decimal.Decimal `json:"cost"`
	ExpenseDate string          `json:"expense_date"`
	Notes       string          `json:"notes,omitempty"`
	Archived    bool            `json:"archived"`
	CreatedAt   string          `json:"created_at"`
}

type ExpenseListResponse struct {
	Data  []ExpenseResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
