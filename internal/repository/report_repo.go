package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository runs the aggregate queries behind the summary report.
// Archived sales and expenses are excluded everywhere.
type ReportRepository interface {
	SumSaleTotals(ctx context.Context) (decimal.Decimal, error)
	SumPayments(ctx context.Context) (decimal.Decimal, error)
	SumBatchCosts(ctx context.Context) (decimal.Decimal, error)
	SumExpenses(ctx context.Context) (decimal.Decimal, error)
	CountSalesByStatus(ctx context.Context) (map[model.PaymentStatus]int64, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func (r *reportRepo) sumScalar(ctx context.Context, q *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := q.Scan(&sum).Error; err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *reportRepo) SumSaleTotals(ctx context.Context) (decimal.Decimal, error) {
	return r.sumScalar(ctx, r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("archived = false").Select("SUM(total_amount)"))
}

func (r *reportRepo) SumPayments(ctx context.Context) (decimal.Decimal, error) {
	return r.sumScalar(ctx, r.db.WithContext(ctx).Model(&model.Payment{}).
		Joins("JOIN sales ON sales.id = payments.sale_id").
		Where("sales.archived = false").
		Select("SUM(payments.amount)"))
}

func (r *reportRepo) SumBatchCosts(ctx context.Context) (decimal.Decimal, error) {
	return r.sumScalar(ctx, r.db.WithContext(ctx).Model(&model.Batch{}).
		Where("active = true").
		Select("SUM(price + COALESCE(transport_cost, 0))"))
}

func (r *reportRepo) SumExpenses(ctx context.Context) (decimal.Decimal, error) {
	return r.sumScalar(ctx, r.db.WithContext(ctx).Model(&model.Expense{}).
		Where("archived = false").Select("SUM(cost)"))
}

func (r *reportRepo) CountSalesByStatus(ctx context.Context) (map[model.PaymentStatus]int64, error) {
	var rows []struct {
		PaymentStatus model.PaymentStatus
		N             int64
	}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("archived = false").
		Select("payment_status, COUNT(*) AS n").
		Group("payment_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.PaymentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.PaymentStatus] = row.N
	}
	return counts, nil
}
