package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileVisibility string

const (
	ProfilePublic  ProfileVisibility = "public"
	ProfilePrivate ProfileVisibility = "private"
	ProfileFriends ProfileVisibility = "friends"
)

// Profile holds the extended, one-per-user account information.
type Profile struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FirstName   string            `gorm:"size:50" json:"first_name,omitempty"`
	LastName    string            `gorm:"size:50" json:"last_name,omitempty"`
	PhoneNumber string            `gorm:"size:20" json:"phone_number,omitempty"`
	DateOfBirth *time.Time        `json:"date_of_birth,omitempty"`
	Bio         string            `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL   string            `gorm:"size:500" json:"avatar_url,omitempty"`
	Location    string            `gorm:"size:100" json:"location,omitempty"`
	Website     string            `gorm:"size:255" json:"website,omitempty"`
	Company     string            `gorm:"size:100" json:"company,omitempty"`
	JobTitle    string            `gorm:"size:100" json:"job_title,omitempty"`
	LinkedinURL string            `gorm:"size:255" json:"linkedin_url,omitempty"`
	TwitterURL  string            `gorm:"size:255" json:"twitter_url,omitempty"`
	GithubURL   string            `gorm:"size:255" json:"github_url,omitempty"`
	Visibility  ProfileVisibility `gorm:"size:10;not null;default:private" json:"visibility"`
	ShowEmail   bool              `gorm:"not null;default:false" json:"show_email"`
	ShowPhone   bool              `gorm:"not null;default:false" json:"show_phone"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
