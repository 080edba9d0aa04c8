package model

import (
	"time"
)

// AuditAction is the closed set of auditable actions
type AuditAction string

const (
	ActionUserLogin       AuditAction = "user.login"
	ActionUserFailedLogin AuditAction = "user.failed_login"
	ActionUserCreated     AuditAction = "user.created"
	ActionTenantCreated   AuditAction = "tenant.created"
	ActionBrandingUpdated AuditAction = "branding.updated"
	ActionCallCreated     AuditAction = "call.created"
	ActionCallCompleted   AuditAction = "call.completed"
	ActionDataAccessed    AuditAction = "data.accessed"
	ActionCrossTenant     AuditAction = "security.cross_tenant"
)

// AuditLog is an append-only security/activity event. TenantID and UserID are
// optional: a failed login before tenant resolution carries neither. Entries
// are never mutated or deleted by the service.
type AuditLog struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	EventID   string      `json:"event_id" gorm:"type:varchar(36);uniqueIndex"`
	TenantID  *uint       `json:"tenant_id,omitempty" gorm:"index"`
	UserID    *uint       `json:"user_id,omitempty" gorm:"index"`
	Action    AuditAction `json:"action" gorm:"type:varchar(50);not null;index"`
	Details   Attrs       `json:"details,omitempty" gorm:"type:jsonb"`
	IP        string      `json:"ip" gorm:"type:varchar(45)"`
	UserAgent string      `json:"user_agent" gorm:"type:varchar(500)"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
