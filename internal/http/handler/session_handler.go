package handler

import (
	"errors"
	"net/http"

	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/service"
)

type SessionHandler struct {
	sessions service.SessionService
}

func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	currentSessionID := middleware.SessionIDFromContext(r.Context())

	views, err := h.sessions.ListSessions(r.Context(), user.ID, currentSessionID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list sessions", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "session.list",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    "self",
		Action:      "list",
		Outcome:     "success",
		Reason:      "sessions_loaded",
	}, "count", len(views))
	response.JSON(w, r, http.StatusOK, views)
}

func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	sessionID, ok := uuidParam(w, r, "session_id")
	if !ok {
		return
	}

	status, err := h.sessions.RevokeSession(r.Context(), user.ID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke session", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "session.revoke.single",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    sessionID.String(),
		Action:      "revoke",
		Outcome:     "success",
		Reason:      status,
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"status":     status,
	})
}

func (h *SessionHandler) RevokeOthers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	currentSessionID := middleware.SessionIDFromContext(r.Context())

	count, err := h.sessions.RevokeOtherSessions(r.Context(), user.ID, currentSessionID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke other sessions", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "session.revoke.others",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    "others",
		Action:      "revoke",
		Outcome:     "success",
		Reason:      "bulk_revoke",
	}, "current_session_id", currentSessionID, "revoked_count", count)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"current_session_id": currentSessionID,
		"revoked_count":      count,
	})
}

// Cleanup runs the expiry sweep on demand. Admin surface; the background
// sweeper covers the steady state.
func (h *SessionHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	swept, err := h.sessions.SweepExpired(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to sweep sessions", nil)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "session.cleanup",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    "expired",
		Action:      "sweep",
		Outcome:     "success",
		Reason:      "manual_sweep",
	}, "swept", swept)
	response.JSON(w, r, http.StatusOK, map[string]any{"swept": swept})
}
