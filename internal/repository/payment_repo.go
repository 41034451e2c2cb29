package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	UpdateTx(tx *gorm.DB, p *model.Payment) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error)
	// SumBySaleTx sums all payment amounts for the sale inside the current
	// transaction — the single input of the status recomputation.
	SumBySaleTx(tx *gorm.DB, saleID uuid.UUID) (decimal.Decimal, error)
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) DB() *gorm.DB { return r.db }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *paymentRepo) UpdateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Save(p).Error
}

func (r *paymentRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Payment{}, id).Error
}

func (r *paymentRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("paid_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) SumBySaleTx(tx *gorm.DB, saleID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := tx.Model(&model.Payment{}).
		Where("sale_id = ?", saleID).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}
