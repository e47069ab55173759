package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// unsetDefaults clears is_default on every non-deleted row owned by ownerID,
// optionally skipping one id that is about to be promoted in the same
// transaction. Callers must run it inside the transaction that performs the
// subsequent set, so a concurrent reader never observes two defaults.
//
// The helper works for any model carrying (user_id, is_default); today that
// is addresses.
func unsetDefaults(tx *gorm.DB, model any, ownerID uuid.UUID, excludeID *uuid.UUID) error {
	query := tx.Model(model).
		Where("user_id = ?", ownerID).
		Where("is_default = ?", true)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	return query.Update("is_default", false).Error
}
