package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/security"
	"github.com/gks77/user-account-service/internal/service"
)

// SuperuserSeed describes the bootstrap superuser created on first boot.
// A zero value skips superuser creation entirely.
type SuperuserSeed struct {
	Email    string
	Username string
	Password string
}

// SeedReport summarises what a SeedSync run changed.
type SeedReport struct {
	CreatedUserTypes int
	CreatedSuperuser bool
	Noop             bool
}

// SeedSync inserts the well-known user-type rows and, when configured, the
// bootstrap superuser. It is idempotent: rows that already exist are left
// untouched and a second run reports Noop.
func SeedSync(db *gorm.DB, super SuperuserSeed) (*SeedReport, error) {
	report := &SeedReport{}

	for i := range service.SeededUserTypes {
		seed := service.SeededUserTypes[i]
		seed.IsActive = true

		var existing domain.UserType
		err := db.Where("code = ?", seed.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup user type %s: %w", seed.Code, err)
		}
		if err := db.Create(&seed).Error; err != nil {
			return nil, fmt.Errorf("create user type %s: %w", seed.Code, err)
		}
		report.CreatedUserTypes++
	}

	created, err := seedSuperuser(db, super)
	if err != nil {
		return nil, err
	}
	report.CreatedSuperuser = created

	report.Noop = report.CreatedUserTypes == 0 && !report.CreatedSuperuser
	return report, nil
}

func seedSuperuser(db *gorm.DB, super SuperuserSeed) (bool, error) {
	email := strings.TrimSpace(strings.ToLower(super.Email))
	if email == "" {
		return false, nil
	}

	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup superuser: %w", err)
	}

	if super.Password == "" {
		return false, errors.New("bootstrap superuser password is required")
	}
	username := strings.TrimSpace(super.Username)
	if username == "" {
		username = email
		if at := strings.Index(email, "@"); at > 0 {
			username = email[:at]
		}
	}

	hashed, err := security.HashPassword(super.Password)
	if err != nil {
		return false, fmt.Errorf("hash superuser password: %w", err)
	}

	var superAdmin domain.UserType
	user := domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
		IsSuperuser:    true,
	}
	if lookupErr := db.Where("code = ?", "SUPER_ADMIN").First(&superAdmin).Error; lookupErr == nil {
		user.UserTypeID = &superAdmin.ID
	}

	if err := db.Create(&user).Error; err != nil {
		return false, fmt.Errorf("create superuser: %w", err)
	}
	return true, nil
}
