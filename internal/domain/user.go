package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string         `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email          string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	HashedPassword string         `gorm:"size:255;not null" json:"-"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser    bool           `gorm:"not null;default:false" json:"is_superuser"`
	UserTypeID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_type_id,omitempty"`
	UserType       *UserType      `json:"user_type,omitempty"`
	ImageURL       string         `gorm:"size:500" json:"image_url,omitempty"`
	Addresses      []Address      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
