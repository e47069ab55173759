package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gks77/user-account-service/internal/http/middleware"
	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/security"
	"github.com/gks77/user-account-service/internal/service"
)

type AuthHandler struct {
	users    service.UserService
	sessions service.SessionService
	cookies  *security.CookieManager
}

func NewAuthHandler(users service.UserService, sessions service.SessionService, cookies *security.CookieManager) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateResource):
			response.Error(w, r, http.StatusConflict, "CONFLICT", "username or email already registered", nil)
		case errors.Is(err, service.ErrUserValidation):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to register user", nil)
		}
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.register",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "user",
		TargetID:    user.ID.String(),
		Action:      "register",
		Outcome:     "success",
		Reason:      "account_created",
	}, "username", user.Username)
	response.JSON(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			observability.EmitAudit(r, observability.AuditInput{
				EventName:  "auth.login",
				TargetType: "user",
				TargetID:   req.Email,
				Action:     "login",
				Outcome:    "denied",
				Reason:     "invalid_credentials",
			})
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			response.Error(w, r, http.StatusForbidden, "ACCOUNT_DISABLED", "account is deactivated", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to log in", nil)
		}
		return
	}

	tokens, err := h.sessions.CreateSession(r.Context(), service.CreateSessionInput{
		UserID:     user.ID,
		DeviceInfo: r.UserAgent(),
		IPAddress:  clientIP(r),
	})
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to establish session", nil)
		return
	}
	h.cookies.SetTokenCookies(w, tokens.AccessToken, tokens.RefreshToken, tokens.Session.ExpiresAt.Sub(tokens.Session.LastActivity))

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.login",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    tokens.Session.ID.String(),
		Action:      "login",
		Outcome:     "success",
		Reason:      "session_created",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"session_id":    tokens.Session.ID,
		"expires_at":    tokens.Session.ExpiresAt,
	})
}

// Refresh rotates the session behind the presented refresh token. The token
// can arrive in the refresh cookie or the request body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, "refresh_token")
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token", nil)
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.cookies.ClearTokenCookies(w)
			response.Error(w, r, http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired refresh token", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to refresh session", nil)
		return
	}
	h.cookies.SetTokenCookies(w, tokens.AccessToken, tokens.RefreshToken, tokens.Session.ExpiresAt.Sub(tokens.Session.LastActivity))

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.refresh",
		ActorUserID: observability.ActorUserID(tokens.Session.UserID),
		TargetType:  "session",
		TargetID:    tokens.Session.ID.String(),
		Action:      "refresh",
		Outcome:     "success",
		Reason:      "session_rotated",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"session_id":    tokens.Session.ID,
		"expires_at":    tokens.Session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	sessionID := middleware.SessionIDFromContext(r.Context())

	status, err := h.sessions.RevokeSession(r.Context(), user.ID, sessionID)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to log out", nil)
		return
	}
	h.cookies.ClearTokenCookies(w)

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.logout",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    sessionID.String(),
		Action:      "logout",
		Outcome:     "success",
		Reason:      status,
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"status": status})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	count, err := h.sessions.RevokeAllSessions(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke sessions", nil)
		return
	}
	h.cookies.ClearTokenCookies(w)

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.logout_all",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "session",
		TargetID:    "all",
		Action:      "logout",
		Outcome:     "success",
		Reason:      "bulk_revoke",
	}, "revoked_count", count)
	response.JSON(w, r, http.StatusOK, map[string]any{"revoked_count": count})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
