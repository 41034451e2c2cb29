package dto

import "github.com/shopspring/decimal"

// SummaryResponse is the business-level report: revenue and payments against
// batch acquisition costs and operating expenses.
type SummaryResponse struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalBatchCost   decimal.Decimal `json:"total_batch_cost"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	SaleCount        int64           `json:"sale_count"`
	UnpaidCount      int64           `json:"unpaid_count"`
	PartialCount     int64           `json:"partial_count"`
	PaidCount        int64           `json:"paid_count"`
}
