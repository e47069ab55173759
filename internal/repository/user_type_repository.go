package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
)

type UserTypeRepository interface {
	List(activeOnly bool) ([]domain.UserType, error)
	FindByID(id uuid.UUID) (*domain.UserType, error)
	FindByCode(code string) (*domain.UserType, error)
	// Ensure creates the lookup row if missing; existing rows are untouched.
	Ensure(userType *domain.UserType) error
}

type GormUserTypeRepository struct{ db *gorm.DB }

func NewUserTypeRepository(db *gorm.DB) UserTypeRepository {
	return &GormUserTypeRepository{db: db}
}

func (r *GormUserTypeRepository) List(activeOnly bool) ([]domain.UserType, error) {
	query := r.db.Model(&domain.UserType{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var types []domain.UserType
	if err := query.Order("code ASC").Find(&types).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user_type", "list", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_type", "list", "success")
	return types, nil
}

func (r *GormUserTypeRepository) FindByID(id uuid.UUID) (*domain.UserType, error) {
	var userType domain.UserType
	err := r.db.First(&userType, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_id", "not_found")
			return nil, ErrUserTypeNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_id", "success")
	return &userType, nil
}

func (r *GormUserTypeRepository) FindByCode(code string) (*domain.UserType, error) {
	var userType domain.UserType
	err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&userType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_code", "not_found")
			return nil, ErrUserTypeNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_code", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_type", "find_by_code", "success")
	return &userType, nil
}

func (r *GormUserTypeRepository) Ensure(userType *domain.UserType) error {
	err := r.db.Where("code = ?", userType.Code).FirstOrCreate(userType).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user_type", "ensure", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user_type", "ensure", "success")
	return nil
}
