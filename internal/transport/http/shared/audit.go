package shared

import (
	"log/slog"
	"net/http"

	"pms/internal/domain/audit"
	"pms/internal/transport/http/middleware"
)

// Audit records a change made by the caller of r. Failures are logged and
// never reach the client.
func Audit(r *http.Request, recorder *audit.Service, action, entityType, entityID string, before, after any) {
	user, _ := middleware.GetUser(r.Context())
	entry := audit.Entry{
		ActorID:    user.UserID,
		ActorRole:  user.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}
	if err := recorder.Record(r.Context(), entry); err != nil {
		slog.Warn("audit log failed", "action", action, "entityType", entityType, "entityId", entityID, "err", err)
	}
}
