package api

import (
	"log/slog"
	"net/http"

	"github.com/alecgard/accolade/internal/audit"
	"github.com/alecgard/accolade/internal/auth"
)

// AuditRecorder accepts audit entries for persistence.
type AuditRecorder interface {
	Record(e audit.Entry)
}

// auditLog emits a structured audit log entry for an admin action and
// hands it to rec for persistence when rec is set.
func auditLog(rec AuditRecorder, r *http.Request, action, resourceType, resourceID string, detail map[string]any) {
	e := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           clientIP(r),
		RequestID:    RequestIDFromContext(r.Context()),
		Detail:       detail,
	}
	if u := auth.UserFromContext(r.Context()); u != nil {
		e.ActorID, e.ActorEmail, e.ActorRole = u.ID, u.Email, u.Role
	}

	attrs := []any{
		"action", e.Action,
		"resource_type", e.ResourceType,
		"resource_id", e.ResourceID,
		"ip", e.IP,
		"request_id", e.RequestID,
		"user_id", e.ActorID,
		"user_email", e.ActorEmail,
		"user_role", e.ActorRole,
	}
	for k, v := range detail {
		attrs = append(attrs, k, v)
	}
	slog.Info("audit", attrs...)

	if rec != nil {
		rec.Record(e)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
