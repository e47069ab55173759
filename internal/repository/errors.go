package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUserTypeNotFound = errors.New("user type not found")

	// ErrDuplicateResource is the storage-level unique-constraint backstop
	// (colliding token hash, reused email). 409 at the boundary, never a crash.
	ErrDuplicateResource = errors.New("duplicate resource")
)

// isDuplicateErr matches unique-constraint violations across the drivers we
// run against (postgres in production, sqlite in tests). GORM's TranslateError
// covers most cases; the string checks catch drivers configured without it.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}
