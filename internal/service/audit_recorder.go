package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/walidyoshi/wals-honey-mgmt/internal/dto"
	"github.com/walidyoshi/wals-honey-mgmt/internal/model"
	"github.com/walidyoshi/wals-honey-mgmt/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FieldChange is one tracked field going from Old to New.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// changeSet accumulates tracked-field diffs. Compare drops no-op entries so
// services can list every tracked field unconditionally.
type changeSet []FieldChange

func (c changeSet) Compare(field, oldVal, newVal string) changeSet {
	if oldVal == newVal {
		return c
	}
	return append(c, FieldChange{Field: field, Old: oldVal, New: newVal})
}

// AuditRecorder appends immutable audit rows inside the caller's transaction,
// so the log and the mutation commit or roll back together. A nil actor is
// recorded as a null (system) actor, never an error.
type AuditRecorder interface {
	RecordChangesTx(tx *gorm.DB, entityType string, entityID uuid.UUID, actor *uuid.UUID, changes []FieldChange) error
	RecordDeletionTx(tx *gorm.DB, entityType string, entityID uuid.UUID, actor *uuid.UUID, snapshot any) error
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]dto.AuditLogResponse, error)
}

type auditRecorder struct {
	repo repository.AuditLogRepository
}

func NewAuditRecorder(repo repository.AuditLogRepository) AuditRecorder {
	return &auditRecorder{repo: repo}
}

func (a *auditRecorder) RecordChangesTx(tx *gorm.DB, entityType string, entityID uuid.UUID, actor *uuid.UUID, changes []FieldChange) error {
	if len(changes) == 0 {
		return nil
	}
	now := time.Now()
	logs := make([]model.AuditLog, 0, len(changes))
	for _, ch := range changes {
		logs = append(logs, model.AuditLog{
			EntityType: entityType,
			EntityID:   entityID,
			FieldName:  ch.Field,
			OldValue:   ch.Old,
			NewValue:   ch.New,
			ChangedBy:  actor,
			ChangedAt:  now,
		})
	}
	return a.repo.CreateTx(tx, logs)
}

func (a *auditRecorder) RecordDeletionTx(tx *gorm.DB, entityType string, entityID uuid.UUID, actor *uuid.UUID, snapshot any) error {
	snap, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return a.repo.CreateTx(tx, []model.AuditLog{{
		EntityType: entityType,
		EntityID:   entityID,
		FieldName:  model.FieldDeleted,
		OldValue:   string(snap),
		ChangedBy:  actor,
		ChangedAt:  time.Now(),
	}})
}

func (a *auditRecorder) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]dto.AuditLogResponse, error) {
	logs, err := a.repo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		var changedBy *string
		if l.ChangedBy != nil {
			s := l.ChangedBy.String()
			changedBy = &s
		}
		out = append(out, dto.AuditLogResponse{
			ID:         l.ID.String(),
			EntityType: l.EntityType,
			EntityID:   l.EntityID.String(),
			FieldName:  l.FieldName,
			OldValue:   l.OldValue,
			NewValue:   l.NewValue,
			ChangedBy:  changedBy,
			ChangedAt:  l.ChangedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
