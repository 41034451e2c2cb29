package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity types tracked by the audit trail.
const (
	EntityBatch   = "batch"
	EntitySale    = "sale"
	EntityPayment = "payment"
	EntityExpense = "expense"
)

// FieldDeleted is the terminal marker written when a tracked record is
// deleted; OldValue carries the pre-deletion snapshot.
const FieldDeleted = "deleted"

// AuditLog is one field-level change on a tracked entity. Rows are append-only:
// no update or delete path exists anywhere in the codebase, and the read path
// returns them ordered by ChangedAt ascending.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityType string    `gorm:"type:varchar(30);not null;index:idx_audit_entity"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity"`
	FieldName  string    `gorm:"not null"`
	OldValue   string
	NewValue   string
	// ChangedBy is nil for unauthenticated/system mutations.
	ChangedBy *uuid.UUID `gorm:"type:uuid"`
	ChangedAt time.Time  `gorm:"not null;index"`
}
