package domain

import "time"

// AuditAction описывает переход в жизненном цикле товара.
type AuditAction string

const (
	AuditActionCreated  AuditAction = "created"
	AuditActionUpdated  AuditAction = "updated"
	AuditActionDeleted  AuditAction = "deleted"
	AuditActionRestored AuditAction = "restored"
)

// AuditEvent — одна запись аудита каталога. Записи только добавляются.
type AuditEvent struct {
	ID         string      `json:"id"`
	ProductID  int64       `json:"product_id"`
	Action     AuditAction `json:"action"`
	Detail     string      `json:"detail,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
