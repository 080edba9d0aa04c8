package service

import (
	"context"

	"callhub-service/internal/model"
	"callhub-service/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestMeta carries the request attributes recorded on audit entries
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditEntry is the input shape for recording an audit event. TenantID and
// UserID may be nil for events raised before tenant resolution.
type AuditEntry struct {
	TenantID  *uint
	UserID    *uint
	Action    model.AuditAction
	Details   model.Attrs
	IP        string
	UserAgent string
}

// AuditRecorder writes audit entries as a best-effort side effect. Record has
// no error return on purpose: a failed audit write must never turn a
// successful business operation into a failed request, nor mask the
// operation's own error when both fail.
type AuditRecorder struct {
	store store.AuditStore
	log   *zap.Logger
}

// NewAuditRecorder creates an audit recorder
func NewAuditRecorder(auditStore store.AuditStore, log *zap.Logger) *AuditRecorder {
	return &AuditRecorder{store: auditStore, log: log}
}

// Record appends an audit entry. Storage failures are logged for operator
// visibility and swallowed.
func (r *AuditRecorder) Record(ctx context.Context, entry AuditEntry) {
	row := &model.AuditLog{
		EventID:   uuid.New().String(),
		TenantID:  entry.TenantID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   entry.Details.Normalize(),
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
	}

	if err := r.store.Create(ctx, row); err != nil {
		r.log.Error("failed to write audit entry",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}
