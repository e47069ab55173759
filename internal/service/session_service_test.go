package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/repository"
)

type stubSessionRepository struct {
	createFn               func(session *domain.Session) error
	findByIDFn             func(id uuid.UUID) (*domain.Session, error)
	findByTokenHashFn      func(hash string) (*domain.Session, error)
	findByRefreshHashFn    func(hash string) (*domain.Session, error)
	listByUserIDFn         func(userID uuid.UUID, opts repository.SessionListOptions) ([]domain.Session, error)
	touchFn                func(id uuid.UUID) (*domain.Session, error)
	rotateFn               func(id uuid.UUID, tokenHash, refreshTokenHash string, expiresAt time.Time) (*domain.Session, error)
	deactivateFn           func(id uuid.UUID) (*domain.Session, error)
	deactivateAllForUserFn func(userID uuid.UUID, excludeID *uuid.UUID) (int64, error)
	sweepExpiredFn         func() (int64, error)
}

func (s *stubSessionRepository) Create(session *domain.Session) error {
	if s.createFn == nil {
		return errors.New("not implemented")
	}
	return s.createFn(session)
}
func (s *stubSessionRepository) FindByID(id uuid.UUID) (*domain.Session, error) {
	if s.findByIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByIDFn(id)
}
func (s *stubSessionRepository) FindByTokenHash(hash string) (*domain.Session, error) {
	if s.findByTokenHashFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByTokenHashFn(hash)
}
func (s *stubSessionRepository) FindByRefreshTokenHash(hash string) (*domain.Session, error) {
	if s.findByRefreshHashFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.findByRefreshHashFn(hash)
}
func (s *stubSessionRepository) ListByUserID(userID uuid.UUID, opts repository.SessionListOptions) ([]domain.Session, error) {
	if s.listByUserIDFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.listByUserIDFn(userID, opts)
}
func (s *stubSessionRepository) CountActiveByUserID(_ uuid.UUID) (int64, error) {
	return 0, errors.New("not implemented")
}
func (s *stubSessionRepository) Touch(id uuid.UUID) (*domain.Session, error) {
	if s.touchFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.touchFn(id)
}
func (s *stubSessionRepository) Rotate(id uuid.UUID, tokenHash, refreshTokenHash string, expiresAt time.Time) (*domain.Session, error) {
	if s.rotateFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.rotateFn(id, tokenHash, refreshTokenHash, expiresAt)
}
func (s *stubSessionRepository) Deactivate(id uuid.UUID) (*domain.Session, error) {
	if s.deactivateFn == nil {
		return nil, errors.New("not implemented")
	}
	return s.deactivateFn(id)
}
func (s *stubSessionRepository) DeactivateAllForUser(userID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	if s.deactivateAllForUserFn == nil {
		return 0, errors.New("not implemented")
	}
	return s.deactivateAllForUserFn(userID, excludeID)
}
func (s *stubSessionRepository) SweepExpired() (int64, error) {
	if s.sweepExpiredFn == nil {
		return 0, errors.New("not implemented")
	}
	return s.sweepExpiredFn()
}

type stubUserLookup struct {
	findByIDFn func(id uuid.UUID) (*domain.User, error)
}

func (s *stubUserLookup) FindByID(id uuid.UUID) (*domain.User, error) {
	if s.findByIDFn == nil {
		return &domain.User{ID: id, IsActive: true}, nil
	}
	return s.findByIDFn(id)
}

// knownUsers resolves every id, for tests that exercise behavior past the
// user-existence check.
func knownUsers() *stubUserLookup {
	return &stubUserLookup{}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeSession(userID uuid.UUID, lastActivity time.Time) domain.Session {
	return domain.Session{
		ID:           uuid.New(),
		UserID:       userID,
		IsActive:     true,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
		LastActivity: lastActivity,
	}
}

func TestCreateSessionUnderCapDoesNotEvict(t *testing.T) {
	userID := uuid.New()
	var created *domain.Session

	repo := &stubSessionRepository{
		listByUserIDFn: func(id uuid.UUID, opts repository.SessionListOptions) ([]domain.Session, error) {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			if !opts.ActiveOnly {
				t.Fatal("expected active-only listing for eviction check")
			}
			return []domain.Session{activeSession(userID, time.Now().UTC())}, nil
		},
		deactivateFn: func(id uuid.UUID) (*domain.Session, error) {
			t.Fatalf("unexpected eviction of %s", id)
			return nil, nil
		},
		createFn: func(session *domain.Session) error { created = session; return nil },
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", 24*time.Hour, 5, testLogger())

	tokens, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID:     userID,
		DeviceInfo: "cli/1.0",
		IPAddress:  "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected raw tokens to be returned")
	}
	if tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if created == nil {
		t.Fatal("expected session to be persisted")
	}
	if created.TokenHash == tokens.AccessToken {
		t.Fatal("raw access token must not be stored")
	}
	if created.RefreshTokenHash == nil || *created.RefreshTokenHash == tokens.RefreshToken {
		t.Fatal("raw refresh token must not be stored")
	}
	if created.DeviceInfo != "cli/1.0" || created.IPAddress != "10.0.0.1" {
		t.Fatalf("attribution not persisted: %+v", created)
	}
	wantExpiry := time.Now().UTC().Add(24 * time.Hour)
	if created.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || created.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("unexpected expiry %v", created.ExpiresAt)
	}
}

func TestCreateSessionRejectsUnknownUser(t *testing.T) {
	repo := &stubSessionRepository{
		createFn: func(*domain.Session) error {
			t.Fatal("no session may be persisted for an unknown user")
			return nil
		},
	}
	users := &stubUserLookup{
		findByIDFn: func(uuid.UUID) (*domain.User, error) {
			return nil, repository.ErrUserNotFound
		},
	}
	svc := NewSessionService(repo, users, "pepper", time.Hour, 5, testLogger())

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: uuid.New()})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateSessionAtCapEvictsOldestByActivity(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	// Listed newest activity first; the two stalest must be evicted to make
	// room under a cap of 2.
	newest := activeSession(userID, now)
	middle := activeSession(userID, now.Add(-time.Hour))
	oldest := activeSession(userID, now.Add(-2*time.Hour))

	var evicted []uuid.UUID
	repo := &stubSessionRepository{
		listByUserIDFn: func(uuid.UUID, repository.SessionListOptions) ([]domain.Session, error) {
			return []domain.Session{newest, middle, oldest}, nil
		},
		deactivateFn: func(id uuid.UUID) (*domain.Session, error) {
			evicted = append(evicted, id)
			return &domain.Session{ID: id}, nil
		},
		createFn: func(*domain.Session) error { return nil },
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 2, testLogger())

	if _, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: userID}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(evicted) != 2 {
		t.Fatalf("expected 2 evictions, got %d", len(evicted))
	}
	if evicted[0] != middle.ID || evicted[1] != oldest.ID {
		t.Fatalf("evicted wrong sessions: %v (middle=%s oldest=%s)", evicted, middle.ID, oldest.ID)
	}
}

func TestValidateAccessTokenTouchesSession(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID, time.Now().UTC().Add(-time.Minute))
	touchedAt := time.Now().UTC()

	var lookedUpHash string
	repo := &stubSessionRepository{
		findByTokenHashFn: func(hash string) (*domain.Session, error) {
			lookedUpHash = hash
			return &sess, nil
		},
		touchFn: func(id uuid.UUID) (*domain.Session, error) {
			if id != sess.ID {
				t.Fatalf("touched wrong session %s", id)
			}
			out := sess
			out.LastActivity = touchedAt
			return &out, nil
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	got, err := svc.ValidateAccessToken(context.Background(), "raw-access-token")
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if lookedUpHash == "raw-access-token" {
		t.Fatal("expected lookup by hash, not raw token")
	}
	if !got.LastActivity.Equal(touchedAt) {
		t.Fatal("expected last activity to advance")
	}
}

func TestValidateAccessTokenRejectsUnknownToken(t *testing.T) {
	repo := &stubSessionRepository{
		findByTokenHashFn: func(string) (*domain.Session, error) {
			return nil, repository.ErrSessionNotFound
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	if _, err := svc.ValidateAccessToken(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.ValidateAccessToken(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token: expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshRotatesHashesAndExtendsExpiry(t *testing.T) {
	userID := uuid.New()
	sess := activeSession(userID, time.Now().UTC())
	oldHash := "old-refresh-hash"
	sess.RefreshTokenHash = &oldHash

	repo := &stubSessionRepository{
		findByRefreshHashFn: func(string) (*domain.Session, error) { return &sess, nil },
		rotateFn: func(id uuid.UUID, tokenHash, refreshTokenHash string, expiresAt time.Time) (*domain.Session, error) {
			if id != sess.ID {
				t.Fatalf("rotated wrong session %s", id)
			}
			if refreshTokenHash == oldHash {
				t.Fatal("refresh hash must change on rotation")
			}
			if !expiresAt.After(time.Now().UTC()) {
				t.Fatalf("expiry not extended: %v", expiresAt)
			}
			out := sess
			out.TokenHash = tokenHash
			out.RefreshTokenHash = &refreshTokenHash
			out.ExpiresAt = expiresAt
			return &out, nil
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	tokens, err := svc.Refresh(context.Background(), "raw-refresh")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tokens.Session.ID != sess.ID {
		t.Fatal("rotation must preserve the session identity")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" || tokens.AccessToken == tokens.RefreshToken {
		t.Fatal("expected a fresh distinct token pair")
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	repo := &stubSessionRepository{
		findByRefreshHashFn: func(string) (*domain.Session, error) {
			return nil, repository.ErrSessionNotFound
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	if _, err := svc.Refresh(context.Background(), "nope"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeSessionStatuses(t *testing.T) {
	userID := uuid.New()

	t.Run("active session is revoked", func(t *testing.T) {
		sess := activeSession(userID, time.Now().UTC())
		repo := &stubSessionRepository{
			findByIDFn:   func(uuid.UUID) (*domain.Session, error) { return &sess, nil },
			deactivateFn: func(id uuid.UUID) (*domain.Session, error) { return &sess, nil },
		}
		svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

		status, err := svc.RevokeSession(context.Background(), userID, sess.ID)
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if status != RevokeStatusRevoked {
			t.Fatalf("expected %q, got %q", RevokeStatusRevoked, status)
		}
	})

	t.Run("already revoked is idempotent", func(t *testing.T) {
		sess := activeSession(userID, time.Now().UTC())
		sess.IsActive = false
		repo := &stubSessionRepository{
			findByIDFn: func(uuid.UUID) (*domain.Session, error) { return &sess, nil },
			deactivateFn: func(id uuid.UUID) (*domain.Session, error) {
				t.Fatal("deactivate must not be called twice")
				return nil, nil
			},
		}
		svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

		status, err := svc.RevokeSession(context.Background(), userID, sess.ID)
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if status != RevokeStatusAlreadyRevoked {
			t.Fatalf("expected %q, got %q", RevokeStatusAlreadyRevoked, status)
		}
	})

	t.Run("foreign session reads as not found", func(t *testing.T) {
		sess := activeSession(uuid.New(), time.Now().UTC())
		repo := &stubSessionRepository{
			findByIDFn: func(uuid.UUID) (*domain.Session, error) { return &sess, nil },
		}
		svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

		if _, err := svc.RevokeSession(context.Background(), userID, sess.ID); !errors.Is(err, repository.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestRevokeOtherSessionsExcludesCurrent(t *testing.T) {
	userID := uuid.New()
	current := uuid.New()

	repo := &stubSessionRepository{
		deactivateAllForUserFn: func(id uuid.UUID, excludeID *uuid.UUID) (int64, error) {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			if excludeID == nil || *excludeID != current {
				t.Fatalf("expected current session %s excluded, got %v", current, excludeID)
			}
			return 3, nil
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	count, err := svc.RevokeOtherSessions(context.Background(), userID, current)
	if err != nil {
		t.Fatalf("RevokeOtherSessions: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestRevokeAllSessionsHasNoExclusion(t *testing.T) {
	repo := &stubSessionRepository{
		deactivateAllForUserFn: func(_ uuid.UUID, excludeID *uuid.UUID) (int64, error) {
			if excludeID != nil {
				t.Fatalf("expected no exclusion, got %v", excludeID)
			}
			return 4, nil
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	count, err := svc.RevokeAllSessions(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RevokeAllSessions: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
}

func TestListSessionsMarksCurrent(t *testing.T) {
	userID := uuid.New()
	a := activeSession(userID, time.Now().UTC())
	b := activeSession(userID, time.Now().UTC().Add(-time.Hour))

	repo := &stubSessionRepository{
		listByUserIDFn: func(uuid.UUID, repository.SessionListOptions) ([]domain.Session, error) {
			return []domain.Session{a, b}, nil
		},
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	views, err := svc.ListSessions(context.Background(), userID, b.ID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].IsCurrent || !views[1].IsCurrent {
		t.Fatalf("current flag misplaced: %+v", views)
	}
}

func TestSweepExpiredReturnsCount(t *testing.T) {
	repo := &stubSessionRepository{
		sweepExpiredFn: func() (int64, error) { return 7, nil },
	}
	svc := NewSessionService(repo, knownUsers(), "pepper", time.Hour, 5, testLogger())

	count, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
}
