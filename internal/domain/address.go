package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeBoth     AddressType = "both"
)

func ParseAddressType(raw string) (AddressType, bool) {
	switch AddressType(strings.ToLower(strings.TrimSpace(raw))) {
	case AddressTypeShipping:
		return AddressTypeShipping, true
	case AddressTypeBilling:
		return AddressTypeBilling, true
	case AddressTypeBoth:
		return AddressTypeBoth, true
	}
	return "", false
}

// Address is one of potentially many mailing addresses owned by a user.
// Among a user's non-deleted addresses at most one carries IsDefault.
type Address struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;index:idx_addresses_user;index:idx_addresses_user_default,priority:1;index:idx_addresses_user_active,priority:1;not null" json:"user_id"`
	Label                string         `gorm:"size:100;not null" json:"label"`
	FirstName            string         `gorm:"size:100;not null" json:"first_name"`
	LastName             string         `gorm:"size:100;not null" json:"last_name"`
	Company              string         `gorm:"size:200" json:"company,omitempty"`
	AddressLine1         string         `gorm:"size:255;not null" json:"address_line_1"`
	AddressLine2         string         `gorm:"size:255" json:"address_line_2,omitempty"`
	City                 string         `gorm:"size:100;not null" json:"city"`
	State                string         `gorm:"size:100;not null" json:"state"`
	PostalCode           string         `gorm:"size:20;not null" json:"postal_code"`
	Country              string         `gorm:"size:100;not null;default:US" json:"country"`
	Phone                string         `gorm:"size:20" json:"phone,omitempty"`
	Email                string         `gorm:"size:255" json:"email,omitempty"`
	AddressType          AddressType    `gorm:"size:20;not null;default:shipping" json:"address_type"`
	IsDefault            bool           `gorm:"index:idx_addresses_user_default,priority:2;not null;default:false" json:"is_default"`
	IsActive             bool           `gorm:"index:idx_addresses_user_active,priority:2;not null;default:true" json:"is_active"`
	DeliveryInstructions string         `gorm:"type:text" json:"delivery_instructions,omitempty"`
	ImageURL             string         `gorm:"size:500" json:"image_url,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Address) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FullName is the contact name printed on the shipping label.
func (a *Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Summary is a short single-line rendering for listings.
func (a *Address) Summary() string {
	return a.Label + ": " + a.AddressLine1 + ", " + a.City + ", " + a.State
}
