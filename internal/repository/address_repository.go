package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
)

type AddressRepository interface {
	// CreateForUser inserts a new address. The user's first active address is
	// forced to default; an explicitly requested default demotes the previous
	// one inside the same transaction.
	CreateForUser(address *domain.Address) error
	FindForUser(userID, addressID uuid.UUID) (*domain.Address, error)
	// ListByUserID orders default-first, then newest-first. The head of the
	// active list is the re-election candidate after a default is removed.
	ListByUserID(userID uuid.UUID, activeOnly bool) ([]domain.Address, error)
	ListByType(userID uuid.UUID, addressType domain.AddressType, activeOnly bool) ([]domain.Address, error)
	FindDefault(userID uuid.UUID) (*domain.Address, error)
	CountActive(userID uuid.UUID) (int64, error)
	// Save persists field changes to an already-loaded address. When
	// promoteDefault is set the other defaults are cleared in the same
	// transaction before the row is written.
	Save(address *domain.Address, promoteDefault bool) error
	// SetDefault promotes the address to the single default for its owner.
	// Inactive or foreign-owned candidates are reported as not found.
	SetDefault(userID, addressID uuid.UUID) (*domain.Address, error)
	// Remove deletes an address (soft by default) and re-elects a new default
	// from the remaining active addresses when the removed one held the flag.
	Remove(userID, addressID uuid.UUID, soft bool) (*domain.Address, error)
}

type GormAddressRepository struct{ db *gorm.DB }

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &GormAddressRepository{db: db}
}

func (r *GormAddressRepository) CreateForUser(address *domain.Address) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var activeCount int64
		if err := tx.Model(&domain.Address{}).
			Where("user_id = ?", address.UserID).
			Where("is_active = ?", true).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount == 0 {
			// First-address rule: the flag is forced regardless of the request.
			address.IsDefault = true
		} else if address.IsDefault {
			if err := unsetDefaults(tx, &domain.Address{}, address.UserID, nil); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "address", "create", "error")
		return err
	}
	if address.IsDefault {
		observability.RecordAddressDefaultEvent(context.Background(), "create", "success")
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "create", "success")
	return nil
}

func (r *GormAddressRepository) FindForUser(userID, addressID uuid.UUID) (*domain.Address, error) {
	var address domain.Address
	err := r.db.
		Where("id = ?", addressID).
		Where("user_id = ?", userID).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "address", "find_for_user", "not_found")
			return nil, ErrAddressNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "address", "find_for_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "find_for_user", "success")
	return &address, nil
}

func (r *GormAddressRepository) ListByUserID(userID uuid.UUID, activeOnly bool) ([]domain.Address, error) {
	query := r.db.Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var addresses []domain.Address
	if err := query.Order("is_default DESC").Order("created_at DESC").Find(&addresses).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "address", "list_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "list_by_user", "success")
	return addresses, nil
}

// ListByType matches the requested type plus "both", which serves either
// purpose.
func (r *GormAddressRepository) ListByType(userID uuid.UUID, addressType domain.AddressType, activeOnly bool) ([]domain.Address, error) {
	query := r.db.
		Where("user_id = ?", userID).
		Where("address_type IN ?", []domain.AddressType{addressType, domain.AddressTypeBoth})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var addresses []domain.Address
	if err := query.Order("is_default DESC").Order("created_at DESC").Find(&addresses).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "address", "list_by_type", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "list_by_type", "success")
	return addresses, nil
}

func (r *GormAddressRepository) FindDefault(userID uuid.UUID) (*domain.Address, error) {
	var address domain.Address
	err := r.db.
		Where("user_id = ?", userID).
		Where("is_default = ?", true).
		Where("is_active = ?", true).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "address", "find_default", "not_found")
			return nil, ErrAddressNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "address", "find_default", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "find_default", "success")
	return &address, nil
}

func (r *GormAddressRepository) CountActive(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Address{}).
		Where("user_id = ?", userID).
		Where("is_active = ?", true).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "address", "count_active", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "count_active", "success")
	return count, nil
}

func (r *GormAddressRepository) Save(address *domain.Address, promoteDefault bool) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if promoteDefault {
			if err := unsetDefaults(tx, &domain.Address{}, address.UserID, &address.ID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		return tx.Save(address).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "address", "save", "error")
		return err
	}
	if promoteDefault {
		observability.RecordAddressDefaultEvent(context.Background(), "set_default", "success")
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "save", "success")
	return nil
}

func (r *GormAddressRepository) SetDefault(userID, addressID uuid.UUID) (*domain.Address, error) {
	var address domain.Address
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ?", addressID).
			Where("user_id = ?", userID).
			First(&address).Error; err != nil {
			return err
		}
		if !address.IsActive {
			// Collapsed with not-found at the boundary so an owner id probe
			// cannot distinguish a deactivated row from a missing one.
			return gorm.ErrRecordNotFound
		}
		if err := unsetDefaults(tx, &domain.Address{}, userID, &address.ID); err != nil {
			return err
		}
		address.IsDefault = true
		return tx.Model(&address).Update("is_default", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordAddressDefaultEvent(context.Background(), "set_default", "not_found")
			return nil, ErrAddressNotFound
		}
		observability.RecordAddressDefaultEvent(context.Background(), "set_default", "error")
		return nil, err
	}
	observability.RecordAddressDefaultEvent(context.Background(), "set_default", "success")
	return &address, nil
}

func (r *GormAddressRepository) Remove(userID, addressID uuid.UUID, soft bool) (*domain.Address, error) {
	var removed domain.Address
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id = ?", addressID).
			Where("user_id = ?", userID).
			First(&removed).Error; err != nil {
			return err
		}
		wasDefault := removed.IsDefault

		if soft {
			// Clear the flags before soft-deleting so a future undelete
			// cannot resurrect a second default.
			if err := tx.Model(&removed).Updates(map[string]any{
				"is_default": false,
				"is_active":  false,
			}).Error; err != nil {
				return err
			}
			removed.IsDefault = false
			removed.IsActive = false
			if err := tx.Delete(&removed).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Unscoped().Delete(&removed).Error; err != nil {
				return err
			}
		}

		if wasDefault {
			// Re-elect the most recently created remaining active address.
			var successor domain.Address
			err := tx.
				Where("user_id = ?", userID).
				Where("is_active = ?", true).
				Order("created_at DESC").
				First(&successor).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // zero remaining addresses leaves no default
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&successor).Update("is_default", true).Error; err != nil {
				return err
			}
			observability.RecordAddressDefaultEvent(context.Background(), "reelect_on_delete", "success")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "address", "remove", "not_found")
			return nil, ErrAddressNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "address", "remove", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "address", "remove", "success")
	return &removed, nil
}
