package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, filter dto.ExpenseFilter) ([]model.Expense, int64, error)
	Update(ctx context.Context, e *model.Expense) error
	UpdateTx(tx *gorm.DB, e *model.Expense) error
	DB() *gorm.DB
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) DB() *gorm.DB { return r.db }

func (r *expenseRepo) Create(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *expenseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var e model.Expense
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *expenseRepo) List(ctx context.Context, filter dto.ExpenseFilter) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Expense{})

	switch filter.Archived {
	case "true":
		q = q.Where("archived = true")
	case "all":
		// no filter
	default:
		q = q.Where("archived = false")
	}
	if filter.From != "" {
		q = q.Where("expense_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("expense_date <= ?", filter.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("expense_date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&expenses).Error
	return expenses, total, err
}

func (r *expenseRepo) Update(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *expenseRepo) UpdateTx(tx *gorm.DB, e *model.Expense) error {
	return tx.Save(e).Error
}
