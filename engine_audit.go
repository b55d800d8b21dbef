package blogauth

import (
	"context"
	"errors"
)

const (
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventRegisterDuplicate     = "register_duplicate"
	auditEventRegisterRateLimited   = "register_rate_limited"
	auditEventSectionReconciled     = "default_section_reconciled"
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventLogout                = "logout"
	auditEventProfileUpdated        = "profile_updated"
	auditEventNicknameUpdated       = "nickname_updated"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventRateLimitTriggered    = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label carried by [AuditEvent].
type AuditErrorCode string

const (
	auditErrAccountExists      AuditErrorCode = "account_exists"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrLegacyDisabled     AuditErrorCode = "legacy_login_disabled"
	auditErrTimeout            AuditErrorCode = "timeout"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrSessionCreation    AuditErrorCode = "session_creation_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil {
		return
	}
	rateLimited := eventType == auditEventLoginRateLimited || eventType == auditEventRegisterRateLimited
	if rateLimited {
		e.metricInc(MetricRateLimitHit)
	}
	if e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)

	if rateLimited {
		e.emitRateLimit(ctx, eventType)
	}
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string) {
	e.audit.Emit(ctx, AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: auditEventRateLimitTriggered,
		IP:        clientIPFromContext(ctx),
		Metadata: map[string]string{
			"scope": scope,
		},
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAccountExists):
		return auditErrAccountExists
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRegistrationRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrLegacyLoginDisabled):
		return auditErrLegacyDisabled
	case errors.Is(err, ErrTimeout):
		return auditErrTimeout
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreation
	default:
		return auditErrInternal
	}
}
