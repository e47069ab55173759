package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/http/response"
	"github.com/gks77/user-account-service/internal/security"
	"github.com/gks77/user-account-service/internal/service"
)

type contextKey string

const (
	sessionContextKey contextKey = "auth.session"
	userContextKey    contextKey = "auth.user"
)

// SessionAuth resolves the bearer token (cookie or Authorization header) to a
// usable session and loads its owner. Requests without a resolvable session
// are rejected before the handler runs.
type SessionAuth struct {
	sessions service.SessionService
	users    service.UserService
}

func NewSessionAuth(sessions service.SessionService, users service.UserService) *SessionAuth {
	return &SessionAuth{sessions: sessions, users: users}
}

func (a *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}

			session, err := a.sessions.ValidateAccessToken(r.Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					response.Error(w, r, http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired token", nil)
					return
				}
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not validate token", nil)
				return
			}

			user, err := a.users.GetUser(r.Context(), session.UserID)
			if err != nil {
				// The owner vanished under a live session. Treat the bearer
				// as invalid rather than leaking the distinction.
				response.Error(w, r, http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired token", nil)
				return
			}
			if !user.IsActive {
				response.Error(w, r, http.StatusForbidden, "ACCOUNT_DISABLED", "account is deactivated", nil)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser gates admin-only routes. Must run after the auth
// middleware.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		if !user.IsSuperuser {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "superuser access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the raw access token from the cookie or the
// Authorization header, cookie first.
func BearerToken(r *http.Request) string {
	if raw := security.GetCookie(r, "access_token"); raw != "" {
		return raw
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) >= len("bearer ")+1 && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*domain.Session)
	return session, ok
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// SessionIDFromContext is a convenience for handlers that only need the
// current session's identity.
func SessionIDFromContext(ctx context.Context) uuid.UUID {
	if session, ok := SessionFromContext(ctx); ok {
		return session.ID
	}
	return uuid.Nil
}
