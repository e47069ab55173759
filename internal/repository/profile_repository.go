package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
)

type ProfileRepository interface {
	Create(profile *domain.Profile) error
	FindByUserID(userID uuid.UUID) (*domain.Profile, error)
	Update(profile *domain.Profile) error
	DeleteByUserID(userID uuid.UUID) error
}

type GormProfileRepository struct{ db *gorm.DB }

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) Create(profile *domain.Profile) error {
	if err := r.db.Create(profile).Error; err != nil {
		if isDuplicateErr(err) {
			observability.RecordRepositoryOperation(context.Background(), "profile", "create", "duplicate")
			return ErrDuplicateResource
		}
		observability.RecordRepositoryOperation(context.Background(), "profile", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "create", "success")
	return nil
}

func (r *GormProfileRepository) FindByUserID(userID uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user", "not_found")
			return nil, ErrProfileNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "find_by_user", "success")
	return &profile, nil
}

func (r *GormProfileRepository) Update(profile *domain.Profile) error {
	if err := r.db.Save(profile).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "profile", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "update", "success")
	return nil
}

func (r *GormProfileRepository) DeleteByUserID(userID uuid.UUID) error {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.Profile{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "profile", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "profile", "delete", "not_found")
		return ErrProfileNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "profile", "delete", "success")
	return nil
}
