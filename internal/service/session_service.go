package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/security"
)

var (
	// ErrInvalidToken covers unknown, expired, revoked and deleted sessions
	// alike: callers never learn which, only that the bearer secret does not
	// resolve to a usable session.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidRefreshToken is the refresh-side twin of ErrInvalidToken.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Revocation outcomes reported by RevokeSession.
const (
	RevokeStatusRevoked        = "revoked"
	RevokeStatusAlreadyRevoked = "already_revoked"
)

// CreateSessionInput carries the client attribution recorded on a new
// session. Tokens are minted by the service, never supplied by callers.
type CreateSessionInput struct {
	UserID     uuid.UUID
	DeviceInfo string
	IPAddress  string
}

// SessionTokens is the result of establishing or refreshing a session: the
// raw bearer secrets handed to the client exactly once, plus the persisted
// session row (which holds only their hashes).
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	Session      *domain.Session
}

// SessionView is the client-facing projection of a session. Hashes never
// leave the service.
type SessionView struct {
	ID           uuid.UUID `json:"id"`
	DeviceInfo   string    `json:"device_info,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsCurrent    bool      `json:"is_current"`
}

// UserLookup is the session service's view of user storage: sessions are
// only ever minted for users that exist.
type UserLookup interface {
	FindByID(id uuid.UUID) (*domain.User, error)
}

// SessionService owns the session lifecycle: minting token pairs, enforcing
// the per-user session cap, validating and refreshing bearers, revocation and
// the expiry sweep.
type SessionService interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*SessionTokens, error)
	ValidateAccessToken(ctx context.Context, rawToken string) (*domain.Session, error)
	Refresh(ctx context.Context, rawRefreshToken string) (*SessionTokens, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) (string, error)
	RevokeOtherSessions(ctx context.Context, userID, currentSessionID uuid.UUID) (int64, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error)
	ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]SessionView, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	sessions    repository.SessionRepository
	users       UserLookup
	pepper      string
	sessionTTL  time.Duration
	maxSessions int
	logger      *slog.Logger
}

func NewSessionService(sessions repository.SessionRepository, users UserLookup, pepper string, sessionTTL time.Duration, maxSessions int, logger *slog.Logger) SessionService {
	return &sessionService{
		sessions:    sessions,
		users:       users,
		pepper:      pepper,
		sessionTTL:  sessionTTL,
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// CreateSession mints a fresh token pair, evicts the least-recently-active
// sessions until the new one fits under the cap, and persists the session
// with hashed secrets only.
func (s *sessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*SessionTokens, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("create session: user id is required")
	}
	if _, err := s.users.FindByID(in.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordSessionManagementEvent(ctx, "create", "user_not_found")
			return nil, repository.ErrUserNotFound
		}
		observability.RecordSessionManagementEvent(ctx, "create", "error")
		return nil, fmt.Errorf("look up session user: %w", err)
	}

	access, refresh, err := security.NewTokenPair()
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "create", "error")
		return nil, fmt.Errorf("mint token pair: %w", err)
	}

	if err := s.evictForNewSession(ctx, in.UserID); err != nil {
		observability.RecordSessionManagementEvent(ctx, "create", "error")
		return nil, err
	}

	refreshHash := security.HashToken(refresh, s.pepper)
	now := time.Now().UTC()
	session := &domain.Session{
		UserID:           in.UserID,
		TokenHash:        security.HashToken(access, s.pepper),
		RefreshTokenHash: &refreshHash,
		ExpiresAt:        now.Add(s.sessionTTL),
		IsActive:         true,
		DeviceInfo:       in.DeviceInfo,
		IPAddress:        in.IPAddress,
		LastActivity:     now,
	}
	if err := s.sessions.Create(session); err != nil {
		observability.RecordSessionManagementEvent(ctx, "create", "error")
		return nil, fmt.Errorf("persist session: %w", err)
	}

	observability.RecordSessionManagementEvent(ctx, "create", "success")
	s.logger.InfoContext(ctx, "session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", in.UserID.String()),
		slog.Time("expires_at", session.ExpiresAt),
	)
	return &SessionTokens{AccessToken: access, RefreshToken: refresh, Session: session}, nil
}

// evictForNewSession deactivates just enough of the user's oldest-activity
// sessions that one more fits under the cap. The repository lists sessions
// newest activity first, so eviction trims from the tail.
func (s *sessionService) evictForNewSession(ctx context.Context, userID uuid.UUID) error {
	active, err := s.sessions.ListByUserID(userID, repository.SessionListOptions{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("list sessions for eviction: %w", err)
	}
	if len(active) < s.maxSessions {
		return nil
	}

	evictCount := len(active) - s.maxSessions + 1
	victims := active[len(active)-evictCount:]
	for i := range victims {
		if _, err := s.sessions.Deactivate(victims[i].ID); err != nil {
			return fmt.Errorf("evict session %s: %w", victims[i].ID, err)
		}
		observability.RecordSessionManagementEvent(ctx, "evict", "success")
		s.logger.InfoContext(ctx, "session evicted",
			slog.String("session_id", victims[i].ID.String()),
			slog.String("user_id", userID.String()),
			slog.Time("last_activity", victims[i].LastActivity),
		)
	}
	return nil
}

// ValidateAccessToken resolves a raw bearer to its usable session and bumps
// last-activity. Every failure mode looks the same to the caller.
func (s *sessionService) ValidateAccessToken(ctx context.Context, rawToken string) (*domain.Session, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}
	session, err := s.sessions.FindByTokenHash(security.HashToken(rawToken, s.pepper))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionManagementEvent(ctx, "validate", "rejected")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve access token: %w", err)
	}

	touched, err := s.sessions.Touch(session.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Revoked or swept between lookup and touch.
			observability.RecordSessionManagementEvent(ctx, "validate", "rejected")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("touch session: %w", err)
	}
	observability.RecordSessionManagementEvent(ctx, "validate", "success")
	return touched, nil
}

// Refresh rotates a usable session in place: both hashes and the expiry are
// replaced in one update, so the session's identity and created-at survive
// while the old secrets stop resolving immediately.
func (s *sessionService) Refresh(ctx context.Context, rawRefreshToken string) (*SessionTokens, error) {
	if rawRefreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	session, err := s.sessions.FindByRefreshTokenHash(security.HashToken(rawRefreshToken, s.pepper))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionManagementEvent(ctx, "refresh", "rejected")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("resolve refresh token: %w", err)
	}

	access, refresh, err := security.NewTokenPair()
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "refresh", "error")
		return nil, fmt.Errorf("mint token pair: %w", err)
	}

	rotated, err := s.sessions.Rotate(
		session.ID,
		security.HashToken(access, s.pepper),
		security.HashToken(refresh, s.pepper),
		time.Now().UTC().Add(s.sessionTTL),
	)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionManagementEvent(ctx, "refresh", "rejected")
			return nil, ErrInvalidRefreshToken
		}
		observability.RecordSessionManagementEvent(ctx, "refresh", "error")
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	observability.RecordSessionManagementEvent(ctx, "refresh", "success")
	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("session_id", rotated.ID.String()),
		slog.String("user_id", rotated.UserID.String()),
		slog.Time("expires_at", rotated.ExpiresAt),
	)
	return &SessionTokens{AccessToken: access, RefreshToken: refresh, Session: rotated}, nil
}

// RevokeSession deactivates one of the user's sessions. Revoking an already
// revoked session succeeds with a distinct status rather than erroring, so
// logout is idempotent. Sessions belonging to other users are reported as
// not found.
func (s *sessionService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) (string, error) {
	session, err := s.sessions.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", repository.ErrSessionNotFound
		}
		return "", fmt.Errorf("find session: %w", err)
	}
	if session.UserID != userID {
		return "", repository.ErrSessionNotFound
	}
	if !session.IsActive {
		observability.RecordSessionManagementEvent(ctx, "revoke", "noop")
		return RevokeStatusAlreadyRevoked, nil
	}

	if _, err := s.sessions.Deactivate(sessionID); err != nil {
		observability.RecordSessionManagementEvent(ctx, "revoke", "error")
		return "", fmt.Errorf("deactivate session: %w", err)
	}
	observability.RecordSessionManagementEvent(ctx, "revoke", "success")
	observability.RecordSessionRevokedCount(ctx, "single", 1)
	s.logger.InfoContext(ctx, "session revoked",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()),
	)
	return RevokeStatusRevoked, nil
}

// RevokeOtherSessions deactivates every active session of the user except the
// current one and returns how many were revoked.
func (s *sessionService) RevokeOtherSessions(ctx context.Context, userID, currentSessionID uuid.UUID) (int64, error) {
	count, err := s.sessions.DeactivateAllForUser(userID, &currentSessionID)
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "revoke_others", "error")
		return 0, fmt.Errorf("revoke other sessions: %w", err)
	}
	observability.RecordSessionManagementEvent(ctx, "revoke_others", "success")
	observability.RecordSessionRevokedCount(ctx, "others", count)
	s.logger.InfoContext(ctx, "other sessions revoked",
		slog.String("user_id", userID.String()),
		slog.Int64("count", count),
	)
	return count, nil
}

// RevokeAllSessions deactivates every active session of the user, current one
// included. Used on logout-everywhere and on account deactivation.
func (s *sessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessions.DeactivateAllForUser(userID, nil)
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "revoke_all", "error")
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	observability.RecordSessionManagementEvent(ctx, "revoke_all", "success")
	observability.RecordSessionRevokedCount(ctx, "all", count)
	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", userID.String()),
		slog.Int64("count", count),
	)
	return count, nil
}

// ListSessions returns the user's active, unexpired sessions newest activity
// first, marking the one backing the current request.
func (s *sessionService) ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]SessionView, error) {
	sessions, err := s.sessions.ListByUserID(userID, repository.SessionListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		views = append(views, SessionView{
			ID:           sess.ID,
			DeviceInfo:   sess.DeviceInfo,
			IPAddress:    sess.IPAddress,
			CreatedAt:    sess.CreatedAt,
			LastActivity: sess.LastActivity,
			ExpiresAt:    sess.ExpiresAt,
			IsCurrent:    sess.ID == currentSessionID,
		})
	}
	return views, nil
}

// SweepExpired soft-deletes every session past its expiry and reports the
// count. Safe to run concurrently and on a timer; a quiet sweep returns zero.
func (s *sessionService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.sessions.SweepExpired()
	if err != nil {
		observability.RecordSessionManagementEvent(ctx, "sweep", "error")
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}
	observability.RecordSessionManagementEvent(ctx, "sweep", "success")
	if count > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept", slog.Int64("count", count))
	}
	return count, nil
}
