package dto

type AuditLogResponse struct {
	ID         string  `json:"id"`
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	FieldName  string  `json:"field_name"`
	OldValue   string  `json:"old_value"`
	NewValue   string  `json:"new_value"`
	ChangedBy  *string `json:"changed_by"` // null = system actor
	ChangedAt  string  `json:"changed_at"`
}
