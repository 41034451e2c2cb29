package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BatchRepository defines the data access contract for honey batches.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type BatchRepository interface {
	Create(ctx context.Context, b *model.Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	FindByCode(ctx context.Context, code string) (*model.Batch, error)
	List(ctx context.Context, filter dto.BatchFilter) ([]model.Batch, int64, error)
	Update(ctx context.Context, b *model.Batch) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountSaleRefs counts active sale lines referencing the batch — deletion
	// is blocked while any exist.
	CountSaleRefs(ctx context.Context, id uuid.UUID) (int64, error)

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Batch, error)
	UpdateTx(tx *gorm.DB, b *model.Batch) error
	// AdjustStockTx applies delta to remaining_kg guarded so the result can
	// never go negative; returns the rows affected for the caller to detect a
	// lost race.
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) DB() *gorm.DB { return r.db }

func (r *batchRepo) Create(ctx context.Context, b *model.Batch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := r.db.WithContext(ctx).First(&b, id).Error
	return &b, err
}

func (r *batchRepo) FindByCode(ctx context.Context, code string) (*model.Batch, error) {
	// A code can appear on several rows once batches are deactivated; the
	// active holder, if any, takes precedence.
	var b model.Batch
	err := r.db.WithContext(ctx).Where("batch_code = ?", code).
		Order("active DESC, created_at DESC").First(&b).Error
	return &b, err
}

func (r *batchRepo) List(ctx context.Context, filter dto.BatchFilter) ([]model.Batch, int64, error) {
	var batches []model.Batch
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Batch{})

	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}
	if filter.Search != "" {
		q = q.Where("batch_code ILIKE ? OR source ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("supply_date DESC NULLS LAST, created_at DESC").
		Limit(filter.Limit).Offset(offset).Find(&batches).Error
	return batches, total, err
}

func (r *batchRepo) Update(ctx context.Context, b *model.Batch) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *batchRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Batch{}).Where("id = ?", id).Update("active", false).Error
}

func (r *batchRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Batch{}).Where("id = ?", id).Update("active", true).Error
}

func (r *batchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Batch{}, id).Error
}

func (r *batchRepo) CountSaleRefs(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sale_items.batch_id = ? AND sales.archived = false", id).
		Count(&n).Error
	return n, err
}

func (r *batchRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Batch, error) {
	var b model.Batch
	err := tx.First(&b, id).Error
	return &b, err
}

func (r *batchRepo) UpdateTx(tx *gorm.DB, b *model.Batch) error {
	return tx.Save(b).Error
}

func (r *batchRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	res := tx.Model(&model.Batch{}).
		Where("id = ? AND remaining_kg + ? >= 0", id, delta).
		Update("remaining_kg", gorm.Expr("remaining_kg + ?", delta))
	return res.RowsAffected, res.Error
}
