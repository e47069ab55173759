package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/repository"
)

// SeededUserTypes are the lookup rows guaranteed to exist after startup.
var SeededUserTypes = []domain.UserType{
	{Name: "Super Administrator", Code: "SUPER_ADMIN", Description: "Unrestricted platform access"},
	{Name: "Administrator", Code: "ADMIN", Description: "Administrative access"},
	{Name: "Human Resources", Code: "HR", Description: "People operations access"},
	{Name: "Employee", Code: "EMPLOYEE", Description: "Internal staff account"},
	{Name: "User", Code: "USER", Description: "Standard end-user account"},
}

// UserTypeService exposes the user-type lookup table and seeds the
// well-known rows.
type UserTypeService interface {
	ListUserTypes(ctx context.Context, activeOnly bool) ([]domain.UserType, error)
	GetUserType(ctx context.Context, id uuid.UUID) (*domain.UserType, error)
	GetUserTypeByCode(ctx context.Context, code string) (*domain.UserType, error)
	// SeedDefaults is idempotent: existing rows are left untouched.
	SeedDefaults(ctx context.Context) error
}

type userTypeService struct {
	userTypes repository.UserTypeRepository
	logger    *slog.Logger
}

func NewUserTypeService(userTypes repository.UserTypeRepository, logger *slog.Logger) UserTypeService {
	return &userTypeService{userTypes: userTypes, logger: logger}
}

func (s *userTypeService) ListUserTypes(ctx context.Context, activeOnly bool) ([]domain.UserType, error) {
	return s.userTypes.List(activeOnly)
}

func (s *userTypeService) GetUserType(ctx context.Context, id uuid.UUID) (*domain.UserType, error) {
	return s.userTypes.FindByID(id)
}

func (s *userTypeService) GetUserTypeByCode(ctx context.Context, code string) (*domain.UserType, error) {
	return s.userTypes.FindByCode(code)
}

func (s *userTypeService) SeedDefaults(ctx context.Context) error {
	for i := range SeededUserTypes {
		seed := SeededUserTypes[i]
		seed.IsActive = true
		if err := s.userTypes.Ensure(&seed); err != nil {
			return fmt.Errorf("seed user type %s: %w", seed.Code, err)
		}
	}
	s.logger.InfoContext(ctx, "user types seeded", slog.Int("count", len(SeededUserTypes)))
	return nil
}
