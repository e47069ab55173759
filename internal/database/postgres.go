package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gks77/user-account-service/internal/config"
)

// Open connects to Postgres. TranslateError maps driver unique-violation
// errors onto gorm.ErrDuplicatedKey so the repositories can detect them
// portably.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}
