package observability

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// AuditInput is the fixed shape of an audit event. Free-form context goes in
// the trailing key/value pairs of EmitAudit.
type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

var auditLogger atomic.Pointer[slog.Logger]

func SetAuditLogger(logger *slog.Logger) {
	auditLogger.Store(logger)
}

func ActorUserID(id uuid.UUID) string {
	if id == uuid.Nil {
		return "anonymous"
	}
	return id.String()
}

// EmitAudit writes one structured audit line tied to the request id.
func EmitAudit(r *http.Request, in AuditInput, extra ...any) {
	logger := auditLogger.Load()
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{
		"audit", true,
		"event", in.EventName,
		"actor_user_id", in.ActorUserID,
		"target_type", in.TargetType,
		"target_id", in.TargetID,
		"action", in.Action,
		"outcome", in.Outcome,
		"reason", in.Reason,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	}
	args = append(args, extra...)
	logger.LogAttrs(r.Context(), slog.LevelInfo, "audit_event", argsToAttrs(args)...)
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}
