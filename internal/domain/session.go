package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session tracks one authenticated client connection. Only hashed tokens are
// stored; the raw bearer secrets never touch the database.
type Session struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;index:idx_sessions_user_active,priority:1;not null" json:"user_id"`
	TokenHash        string         `gorm:"size:128;uniqueIndex;not null" json:"-"`
	RefreshTokenHash *string        `gorm:"size:128;uniqueIndex" json:"-"`
	ExpiresAt        time.Time      `gorm:"index;not null" json:"expires_at"`
	IsActive         bool           `gorm:"index:idx_sessions_user_active,priority:2;not null;default:true" json:"is_active"`
	DeviceInfo       string         `gorm:"size:512" json:"device_info,omitempty"`
	IPAddress        string         `gorm:"size:64" json:"ip_address,omitempty"`
	LastActivity     time.Time      `gorm:"index;not null" json:"last_activity"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Session) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.LastActivity.IsZero() {
		s.LastActivity = time.Now().UTC()
	}
	return nil
}

// Usable reports whether the session may authenticate requests at the given
// instant: active, not soft-deleted, not past its expiry.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && !s.DeletedAt.Valid && s.ExpiresAt.After(now)
}
