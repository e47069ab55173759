package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
)

// SessionListOptions narrows ListByUserID. The zero value lists every
// non-deleted session for the user, newest activity first.
type SessionListOptions struct {
	ActiveOnly     bool
	IncludeExpired bool
}

type SessionRepository interface {
	Create(session *domain.Session) error
	FindByID(id uuid.UUID) (*domain.Session, error)
	FindByTokenHash(hash string) (*domain.Session, error)
	FindByRefreshTokenHash(hash string) (*domain.Session, error)
	// ListByUserID returns sessions ordered by last_activity descending.
	// The ordering is a contract: eviction in the lifecycle service trims
	// from the tail of this list.
	ListByUserID(userID uuid.UUID, opts SessionListOptions) ([]domain.Session, error)
	CountActiveByUserID(userID uuid.UUID) (int64, error)
	Touch(id uuid.UUID) (*domain.Session, error)
	Rotate(id uuid.UUID, tokenHash, refreshTokenHash string, expiresAt time.Time) (*domain.Session, error)
	Deactivate(id uuid.UUID) (*domain.Session, error)
	DeactivateAllForUser(userID uuid.UUID, excludeID *uuid.UUID) (int64, error)
	SweepExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(session *domain.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		if isDuplicateErr(err) {
			observability.RecordRepositoryOperation(context.Background(), "session", "create", "duplicate")
			return ErrDuplicateResource
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByID(id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id", "success")
	return &session, nil
}

// FindByTokenHash resolves a usable session only: active, non-deleted and
// unexpired. A physically present but revoked or expired row is reported as
// not found.
func (r *GormSessionRepository) FindByTokenHash(hash string) (*domain.Session, error) {
	return r.findUsable("token_hash = ?", hash, "find_by_token_hash")
}

func (r *GormSessionRepository) FindByRefreshTokenHash(hash string) (*domain.Session, error) {
	return r.findUsable("refresh_token_hash = ?", hash, "find_by_refresh_token_hash")
}

func (r *GormSessionRepository) findUsable(cond string, hash string, op string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.
		Where(cond, hash).
		Where("is_active = ?", true).
		Where("expires_at > ?", time.Now().UTC()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", op, "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", op, "success")
	return &session, nil
}

func (r *GormSessionRepository) ListByUserID(userID uuid.UUID, opts SessionListOptions) ([]domain.Session, error) {
	query := r.db.Where("user_id = ?", userID)
	if opts.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if !opts.IncludeExpired {
		query = query.Where("expires_at > ?", time.Now().UTC())
	}
	var sessions []domain.Session
	if err := query.Order("last_activity DESC").Find(&sessions).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_by_user", "success")
	return sessions, nil
}

func (r *GormSessionRepository) CountActiveByUserID(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Where("expires_at > ?", time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "count_active", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "count_active", "success")
	return count, nil
}

// Touch advances last_activity to now. last_activity is monotonically
// non-decreasing: it is only ever written with the current clock.
func (r *GormSessionRepository) Touch(id uuid.UUID) (*domain.Session, error) {
	res := r.db.Model(&domain.Session{}).
		Where("id = ?", id).
		Update("last_activity", time.Now().UTC())
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "touch", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "touch", "not_found")
		return nil, ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "touch", "success")
	return r.FindByID(id)
}

// Rotate atomically replaces both token hashes, the expiry and the activity
// timestamp in one UPDATE. The session id and created_at survive rotation.
func (r *GormSessionRepository) Rotate(id uuid.UUID, tokenHash, refreshTokenHash string, expiresAt time.Time) (*domain.Session, error) {
	res := r.db.Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token_hash":         tokenHash,
			"refresh_token_hash": refreshTokenHash,
			"expires_at":         expiresAt,
			"last_activity":      time.Now().UTC(),
		})
	if res.Error != nil {
		if isDuplicateErr(res.Error) {
			observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "duplicate")
			return nil, ErrDuplicateResource
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "not_found")
		return nil, ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "success")
	return r.FindByID(id)
}

// Deactivate is idempotent: revoking an already revoked session succeeds and
// returns the row in its final state.
func (r *GormSessionRepository) Deactivate(id uuid.UUID) (*domain.Session, error) {
	session, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		observability.RecordRepositoryOperation(context.Background(), "session", "deactivate", "noop")
		return session, nil
	}
	if err := r.db.Model(session).Update("is_active", false).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "deactivate", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "deactivate", "success")
	session.IsActive = false
	return session, nil
}

func (r *GormSessionRepository) DeactivateAllForUser(userID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	query := r.db.Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Where("is_active = ?", true)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	res := query.Update("is_active", false)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "deactivate_all", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "deactivate_all", "success")
	return res.RowsAffected, nil
}

// SweepExpired soft-deletes every non-deleted session past its expiry.
// Maintenance path only; live lookups already treat expired rows as absent.
func (r *GormSessionRepository) SweepExpired() (int64, error) {
	res := r.db.
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "sweep_expired", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "sweep_expired", "success")
	return res.RowsAffected, nil
}
