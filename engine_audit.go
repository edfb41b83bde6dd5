package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/internal/audit"
)

const (
	auditEventSessionCreated     = "session_created"
	auditEventSessionInvalidated = "session_invalidated"
	auditEventSessionEvicted     = "session_evicted"
	auditEventSessionExpired     = "session_expired"
	auditEventSessionsRevoked    = "sessions_revoked"
	auditEventSuspiciousDetected = "suspicious_sessions_detected"
	auditEventAutoRevoke         = "suspicious_sessions_revoked"
	auditEventLockContention     = "session_lock_contention"
)

// AuditErrorCode is the stable error classification carried by audit events.
type AuditErrorCode string

const (
	auditErrStorage   AuditErrorCode = "storage_failure"
	auditErrNotFound  AuditErrorCode = "session_not_found"
	auditErrInvalid   AuditErrorCode = "validation_failure"
	auditErrLock      AuditErrorCode = "lock_timeout"
	auditErrCancelled AuditErrorCode = "cancelled"
	auditErrInternal  AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	severity AuditSeverity,
	success bool,
	userID string,
	tenantID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if tenantID == "" {
		tenantID = tenantIDFromContext(ctx)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        audit.NewEventID(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Severity:  severity,
		UserID:    userID,
		TenantID:  tenantID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrStorageFailure):
		return auditErrStorage
	case errors.Is(err, ErrSessionNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrValidation):
		return auditErrInvalid
	case errors.Is(err, errLockTimeout):
		return auditErrLock
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCancelled
	default:
		return auditErrInternal
	}
}
