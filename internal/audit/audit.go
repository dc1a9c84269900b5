// Package audit writes the append-only security audit trail. Recording is
// fire and forget: a failing audit store is logged and never surfaces to the
// authentication flow.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/visiontf/authcore/model"
)

type Logger struct {
	repo EventRepository
}

func NewLogger(repo EventRepository) *Logger {
	return &Logger{repo: repo}
}

// Repository exposes the underlying trail for components that query it.
func (l *Logger) Repository() EventRepository {
	return l.repo
}

func (l *Logger) log(ctx context.Context, event *model.AuditEvent) {
	if event.Severity == "" {
		event.Severity = model.AuditInfo
	}
	if err := l.repo.RecordEvent(ctx, event); err != nil {
		slog.Error("Failed to record audit event", "eventType", event.EventType, "error", err)
	}
}

func marshalDetails(details map[string]any) []byte {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		slog.Error("Failed to encode audit details", "error", err)
		return nil
	}
	return raw
}

func (l *Logger) UserRegistered(ctx context.Context, userID uint, email, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		Email:       email,
		EventType:   model.EventUserRegistered,
		Category:    model.CategoryUserManagement,
		Description: "New user registered",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) EmailVerified(ctx context.Context, userID uint) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventEmailVerified,
		Category:    model.CategoryUserManagement,
		Description: "Email address verified",
	})
}

func (l *Logger) UserLogin(ctx context.Context, correlationID string, userID uint, ip, userAgent, sessionToken string) {
	l.log(ctx, &model.AuditEvent{
		CorrelationID: correlationID,
		UserID:        &userID,
		EventType:     model.EventUserLogin,
		Category:      model.CategoryAuthentication,
		Description:   "User logged in successfully",
		IPAddress:     ip,
		UserAgent:     userAgent,
		SessionToken:  sessionToken,
	})
}

func (l *Logger) UserLogout(ctx context.Context, userID uint, ip, userAgent, sessionToken string) {
	l.log(ctx, &model.AuditEvent{
		UserID:       &userID,
		EventType:    model.EventUserLogout,
		Category:     model.CategoryAuthentication,
		Description:  "User logged out",
		IPAddress:    ip,
		UserAgent:    userAgent,
		SessionToken: sessionToken,
	})
}

func (l *Logger) LoginFailed(ctx context.Context, correlationID string, email, ip, userAgent, reason string) {
	l.log(ctx, &model.AuditEvent{
		CorrelationID: correlationID,
		Email:         email,
		EventType:     model.EventLoginFailed,
		Category:      model.CategorySecurity,
		Severity:      model.AuditWarning,
		Description:   "Failed login attempt for " + email,
		Details:       marshalDetails(map[string]any{"email": email, "reason": reason}),
		IPAddress:     ip,
		UserAgent:     userAgent,
	})
}

func (l *Logger) AccountLocked(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventAccountLocked,
		Category:    model.CategorySecurity,
		Severity:    model.AuditWarning,
		Description: "Account locked due to repeated failed login attempts",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) AccountUnlocked(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventAccountUnlocked,
		Category:    model.CategorySecurity,
		Description: "Account unlocked after successful login",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) PasswordResetRequested(ctx context.Context, email, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		Email:       email,
		EventType:   model.EventPasswordResetRequested,
		Category:    model.CategorySecurity,
		Description: "Password reset requested",
		Details:     marshalDetails(map[string]any{"email": email}),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) PasswordResetCompleted(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventPasswordResetCompleted,
		Category:    model.CategorySecurity,
		Description: "Password reset completed",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) TwoFactorSetup(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventTwoFactorSetup,
		Category:    model.CategorySecurity,
		Description: "Two-factor authentication setup initiated",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) TwoFactorEnabled(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventTwoFactorEnabled,
		Category:    model.CategorySecurity,
		Description: "Two-factor authentication enabled",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) TwoFactorDisabled(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventTwoFactorDisabled,
		Category:    model.CategorySecurity,
		Severity:    model.AuditWarning,
		Description: "Two-factor authentication disabled",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) TwoFactorFailed(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventTwoFactorFailed,
		Category:    model.CategorySecurity,
		Severity:    model.AuditWarning,
		Description: "Two-factor authentication verification failed",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) SessionCreated(ctx context.Context, correlationID string, userID uint, sessionToken, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		CorrelationID: correlationID,
		UserID:        &userID,
		EventType:     model.EventSessionCreated,
		Category:      model.CategorySession,
		Description:   "New session created",
		SessionToken:  sessionToken,
		IPAddress:     ip,
		UserAgent:     userAgent,
	})
}

func (l *Logger) SessionTerminated(ctx context.Context, userID uint, sessionToken, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:       &userID,
		EventType:    model.EventSessionTerminated,
		Category:     model.CategorySession,
		Description:  "Session terminated",
		SessionToken: sessionToken,
		IPAddress:    ip,
		UserAgent:    userAgent,
	})
}

func (l *Logger) AllSessionsTerminated(ctx context.Context, userID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &userID,
		EventType:   model.EventAllSessionsTerminated,
		Category:    model.CategorySession,
		Description: "All user sessions terminated",
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

func (l *Logger) UserDeactivated(ctx context.Context, actorID uint, targetUserID uint, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      &actorID,
		EventType:   model.EventUserDeactivated,
		Category:    model.CategoryUserManagement,
		Severity:    model.AuditWarning,
		Description: "User account deactivated",
		Details:     marshalDetails(map[string]any{"targetUserId": targetUserID}),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}

// SuspiciousActivity mirrors a flagged record into the audit trail. UserID
// may be nil for IP-scoped detections.
func (l *Logger) SuspiciousActivity(ctx context.Context, userID *uint, description string, details map[string]any, ip, userAgent string) {
	l.log(ctx, &model.AuditEvent{
		UserID:      userID,
		EventType:   model.EventSuspiciousActivity,
		Category:    model.CategorySecurity,
		Severity:    model.AuditWarning,
		Description: description,
		Details:     marshalDetails(details),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}
