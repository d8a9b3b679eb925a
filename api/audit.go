package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess    AuditEvent = "login_success"
	AuditLoginFailure    AuditEvent = "login_failure"
	AuditLoginBlocked    AuditEvent = "login_blocked"
	AuditLogout          AuditEvent = "logout"
	AuditRateLimited     AuditEvent = "rate_limited"
	AuditCSRFRejected    AuditEvent = "csrf_rejected"
	AuditSessionRejected AuditEvent = "session_rejected"
	AuditCommentPosted   AuditEvent = "comment_posted"
	AuditReactionPosted  AuditEvent = "reaction_posted"
	AuditWriteupUploaded AuditEvent = "writeup_uploaded"
	AuditUploadRejected  AuditEvent = "upload_rejected"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{logger: logger.With("component", "audit")}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("client", clientKey(r)),
		slog.String("path", r.URL.Path),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

// logFailure logs a rejected request with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{slog.String("reason", reason)}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
