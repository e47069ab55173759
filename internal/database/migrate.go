package database

import (
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.UserType{},
		&domain.User{},
		&domain.Profile{},
		&domain.Address{},
		&domain.Session{},
	)
}
