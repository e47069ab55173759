package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
)

var (
	ErrAddressValidation  = errors.New("invalid address payload")
	ErrInvalidAddressType = fmt.Errorf("%w: unknown address type", ErrAddressValidation)
)

// AddressCreateInput is the payload for adding an address to a user's book.
type AddressCreateInput struct {
	Label                string `json:"label"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Company              string `json:"company"`
	AddressLine1         string `json:"address_line_1"`
	AddressLine2         string `json:"address_line_2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	PostalCode           string `json:"postal_code"`
	Country              string `json:"country"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	AddressType          string `json:"address_type"`
	IsDefault            bool   `json:"is_default"`
	DeliveryInstructions string `json:"delivery_instructions"`
}

// AddressUpdate applies a partial update; nil fields are left untouched.
// Setting IsDefault to true promotes the address; setting it to false only
// clears the flag, which may legitimately leave the user with no default.
type AddressUpdate struct {
	Label                *string `json:"label"`
	FirstName            *string `json:"first_name"`
	LastName             *string `json:"last_name"`
	Company              *string `json:"company"`
	AddressLine1         *string `json:"address_line_1"`
	AddressLine2         *string `json:"address_line_2"`
	City                 *string `json:"city"`
	State                *string `json:"state"`
	PostalCode           *string `json:"postal_code"`
	Country              *string `json:"country"`
	Phone                *string `json:"phone"`
	Email                *string `json:"email"`
	AddressType          *string `json:"address_type"`
	IsDefault            *bool   `json:"is_default"`
	IsActive             *bool   `json:"is_active"`
	DeliveryInstructions *string `json:"delivery_instructions"`
	ImageURL             *string `json:"image_url"`
}

// AddressService manages a user's address book and its single-default
// invariant.
type AddressService interface {
	CreateAddress(ctx context.Context, userID uuid.UUID, in AddressCreateInput) (*domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.Address, error)
	ListAddressesByType(ctx context.Context, userID uuid.UUID, rawType string, activeOnly bool) ([]domain.Address, error)
	GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, upd AddressUpdate) (*domain.Address, error)
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)
	// DeleteAddress removes the address, soft by default. Deleting the default
	// re-elects the newest remaining active address.
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID, hard bool) error
}

type addressService struct {
	addresses repository.AddressRepository
	logger    *slog.Logger
}

func NewAddressService(addresses repository.AddressRepository, logger *slog.Logger) AddressService {
	return &addressService{addresses: addresses, logger: logger}
}

func (s *addressService) CreateAddress(ctx context.Context, userID uuid.UUID, in AddressCreateInput) (*domain.Address, error) {
	addrType, err := validateAddressInput(in)
	if err != nil {
		return nil, err
	}

	address := &domain.Address{
		UserID:               userID,
		Label:                strings.TrimSpace(in.Label),
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		Company:              strings.TrimSpace(in.Company),
		AddressLine1:         strings.TrimSpace(in.AddressLine1),
		AddressLine2:         strings.TrimSpace(in.AddressLine2),
		City:                 strings.TrimSpace(in.City),
		State:                strings.TrimSpace(in.State),
		PostalCode:           strings.TrimSpace(in.PostalCode),
		Country:              strings.TrimSpace(in.Country),
		Phone:                strings.TrimSpace(in.Phone),
		Email:                strings.ToLower(strings.TrimSpace(in.Email)),
		AddressType:          addrType,
		IsDefault:            in.IsDefault,
		IsActive:             true,
		DeliveryInstructions: in.DeliveryInstructions,
	}
	if err := s.addresses.CreateForUser(address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	s.logger.InfoContext(ctx, "address created",
		slog.String("address_id", address.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Bool("is_default", address.IsDefault),
	)
	return address, nil
}

func (s *addressService) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	return s.addresses.FindForUser(userID, addressID)
}

func (s *addressService) ListAddresses(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.Address, error) {
	return s.addresses.ListByUserID(userID, activeOnly)
}

func (s *addressService) ListAddressesByType(ctx context.Context, userID uuid.UUID, rawType string, activeOnly bool) ([]domain.Address, error) {
	addrType, ok := domain.ParseAddressType(rawType)
	if !ok {
		return nil, ErrInvalidAddressType
	}
	return s.addresses.ListByType(userID, addrType, activeOnly)
}

func (s *addressService) GetDefaultAddress(ctx context.Context, userID uuid.UUID) (*domain.Address, error) {
	return s.addresses.FindDefault(userID)
}

func (s *addressService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, upd AddressUpdate) (*domain.Address, error) {
	address, err := s.addresses.FindForUser(userID, addressID)
	if err != nil {
		return nil, err
	}

	if upd.AddressType != nil {
		addrType, ok := domain.ParseAddressType(*upd.AddressType)
		if !ok {
			return nil, ErrInvalidAddressType
		}
		address.AddressType = addrType
	}
	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyString(&address.Label, upd.Label)
	applyString(&address.FirstName, upd.FirstName)
	applyString(&address.LastName, upd.LastName)
	applyString(&address.Company, upd.Company)
	applyString(&address.AddressLine1, upd.AddressLine1)
	applyString(&address.AddressLine2, upd.AddressLine2)
	applyString(&address.City, upd.City)
	applyString(&address.State, upd.State)
	applyString(&address.PostalCode, upd.PostalCode)
	applyString(&address.Country, upd.Country)
	applyString(&address.Phone, upd.Phone)
	applyString(&address.DeliveryInstructions, upd.DeliveryInstructions)
	applyString(&address.ImageURL, upd.ImageURL)
	if upd.Email != nil {
		address.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.IsActive != nil {
		address.IsActive = *upd.IsActive
	}

	promote := false
	if upd.IsDefault != nil {
		if *upd.IsDefault && !address.IsDefault {
			promote = true
		}
		address.IsDefault = *upd.IsDefault
	}

	if err := s.addresses.Save(address, promote); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	if promote {
		observability.RecordAddressDefaultEvent(ctx, "update", "success")
	}
	s.logger.InfoContext(ctx, "address updated",
		slog.String("address_id", address.ID.String()),
		slog.String("user_id", userID.String()),
	)
	return address, nil
}

func (s *addressService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	address, err := s.addresses.SetDefault(userID, addressID)
	if err != nil {
		if !errors.Is(err, repository.ErrAddressNotFound) {
			observability.RecordAddressDefaultEvent(ctx, "set_default", "error")
		}
		return nil, err
	}
	observability.RecordAddressDefaultEvent(ctx, "set_default", "success")
	s.logger.InfoContext(ctx, "default address changed",
		slog.String("address_id", addressID.String()),
		slog.String("user_id", userID.String()),
	)
	return address, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID, hard bool) error {
	if _, err := s.addresses.Remove(userID, addressID, !hard); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "address removed",
		slog.String("address_id", addressID.String()),
		slog.String("user_id", userID.String()),
		slog.Bool("hard", hard),
	)
	return nil
}

func validateAddressInput(in AddressCreateInput) (domain.AddressType, error) {
	type required struct {
		name  string
		value string
	}
	for _, f := range []required{
		{"label", in.Label},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"address_line_1", in.AddressLine1},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
		{"country", in.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			return "", fmt.Errorf("%w: %s is required", ErrAddressValidation, f.name)
		}
	}
	raw := in.AddressType
	if strings.TrimSpace(raw) == "" {
		return domain.AddressTypeShipping, nil
	}
	addrType, ok := domain.ParseAddressType(raw)
	if !ok {
		return "", ErrInvalidAddressType
	}
	return addrType, nil
}
