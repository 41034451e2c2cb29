package repository

import (
	"context"

	"github.com/walidyoshi/wals-honey-mgmt/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogRepository is append + read only. There is deliberately no update or
// delete method: audit rows are immutable once written.
type AuditLogRepository interface {
	CreateTx(tx *gorm.DB, logs []model.AuditLog) error
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditLog, error)
	DB() *gorm.DB
}

type auditRepo struct{ db *gorm.DB }

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository { return &auditRepo{db: db} }

func (r *auditRepo) DB() *gorm.DB { return r.db }

func (r *auditRepo) CreateTx(tx *gorm.DB, logs []model.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return tx.Create(&logs).Error
}

func (r *auditRepo) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("changed_at ASC").
		Find(&logs).Error
	return logs, err
}
