package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	// FindByID loads a sale with items and payments regardless of archive
	// state — read-path filtering of archived sales happens in List.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.PaymentStatus) error
	UpdateItemTx(tx *gorm.DB, item *model.SaleItem) error
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items.Batch").Preload("Payments").Preload("Customer").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Preload("Items").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	switch filter.Archived {
	case "true":
		q = q.Where("archived = true")
	case "all":
		// no filter
	default:
		q = q.Where("archived = false")
	}
	if filter.Search != "" {
		q = q.Where("customer_name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		q = q.Where("payment_status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Payments").
		Order("sale_date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Save(s).Error
}

func (r *saleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.PaymentStatus) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("payment_status", status).Error
}

func (r *saleRepo) UpdateItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Save(item).Error
}
