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

type UserListQuery struct {
	PageRequest
	Search     string // matches username or email, case-insensitive substring
	ActiveOnly bool
}

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	Exists(id uuid.UUID) (bool, error)
	ListPaged(q UserListQuery) (PageResult[domain.User], error)
	Update(user *domain.User) error
	Delete(id uuid.UUID) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateErr(err) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create", "duplicate")
			return ErrDuplicateResource
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.Preload("UserType").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findBy("email = ?", strings.ToLower(strings.TrimSpace(email)), "find_by_email")
}

func (r *GormUserRepository) FindByUsername(username string) (*domain.User, error) {
	return r.findBy("username = ?", strings.TrimSpace(username), "find_by_username")
}

func (r *GormUserRepository) findBy(cond, value, op string) (*domain.User, error) {
	var user domain.User
	err := r.db.Preload("UserType").Where(cond, value).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", op, "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", op, "success")
	return &user, nil
}

func (r *GormUserRepository) Exists(id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "exists", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "exists", "success")
	return count > 0, nil
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (PageResult[domain.User], error) {
	page := normalizePageRequest(q.PageRequest)
	query := r.db.Model(&domain.User{})
	if q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}

	var users []domain.User
	err := query.
		Preload("UserType").
		Order("created_at DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&users).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "success")
	return PageResult[domain.User]{
		Items:      users,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	if err := r.db.Save(user).Error; err != nil {
		if isDuplicateErr(err) {
			observability.RecordRepositoryOperation(context.Background(), "user", "update", "duplicate")
			return ErrDuplicateResource
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}

func (r *GormUserRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "delete", "not_found")
		return ErrUserNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "delete", "success")
	return nil
}
