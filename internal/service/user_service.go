package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/observability"
	"github.com/gks77/user-account-service/internal/repository"
	"github.com/gks77/user-account-service/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrUserValidation     = errors.New("invalid user payload")
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters with a letter and a digit", ErrUserValidation)
)

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	UserTypeCode string `json:"user_type_code"`
}

// UserUpdate applies a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
	ImageURL *string `json:"image_url"`
}

// UserService owns account lifecycle and credential checks.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, q repository.UserListQuery) (repository.PageResult[domain.User], error)
	UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (*domain.User, error)
	// DeactivateUser disables the account and revokes every session.
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	// DeleteUser soft-deletes the account and revokes every session.
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

type userService struct {
	users     repository.UserRepository
	userTypes repository.UserTypeRepository
	sessions  SessionService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, userTypes repository.UserTypeRepository, sessions SessionService, logger *slog.Logger) UserService {
	return &userService{users: users, userTypes: userTypes, sessions: sessions, logger: logger}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrUserValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrUserValidation)
	}
	if err := checkPasswordStrength(in.Password); err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if code := strings.TrimSpace(in.UserTypeCode); code != "" {
		userType, err := s.userTypes.FindByCode(code)
		if err != nil {
			if errors.Is(err, repository.ErrUserTypeNotFound) {
				return nil, fmt.Errorf("%w: unknown user type %q", ErrUserValidation, code)
			}
			return nil, fmt.Errorf("resolve user type: %w", err)
		}
		user.UserTypeID = &userType.ID
	}

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateResource) {
			observability.RecordAccountEvent(ctx, "duplicate")
			return nil, repository.ErrDuplicateResource
		}
		observability.RecordAccountEvent(ctx, "error")
		return nil, fmt.Errorf("create user: %w", err)
	}
	observability.RecordAccountEvent(ctx, "registered")
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller; disabled accounts are reported as such
// only after the password check passes.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a comparison so the miss costs the same as a mismatch.
			security.VerifyPassword("$2a$10$invalidinvalidinvalidinv.alidinvalidinvalidinvalidinva", password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !security.VerifyPassword(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(id)
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(email)
}

func (s *userService) ListUsers(ctx context.Context, q repository.UserListQuery) (repository.PageResult[domain.User], error) {
	return s.users.ListPaged(q)
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (*domain.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrUserValidation)
		}
		user.Username = username
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: malformed email", ErrUserValidation)
		}
		user.Email = email
	}
	if upd.Password != nil {
		if err := checkPasswordStrength(*upd.Password); err != nil {
			return nil, err
		}
		hashed, err := security.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.HashedPassword = hashed
	}
	if upd.ImageURL != nil {
		user.ImageURL = *upd.ImageURL
	}

	deactivated := false
	if upd.IsActive != nil {
		deactivated = user.IsActive && !*upd.IsActive
		user.IsActive = *upd.IsActive
	}

	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if deactivated {
		if _, err := s.sessions.RevokeAllSessions(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("revoke sessions on deactivation: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "user updated", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (s *userService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateUser(ctx, id, UserUpdate{IsActive: &inactive})
	return err
}

// DeleteUser soft-deletes the account. Every session dies with it so a
// deleted user cannot keep an authenticated connection alive.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(id); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAllSessions(ctx, id); err != nil {
		return fmt.Errorf("revoke sessions on delete: %w", err)
	}
	if err := s.users.Delete(id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	observability.RecordAccountEvent(ctx, "deleted")
	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id.String()))
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(id)
	if err != nil {
		return err
	}
	if !security.VerifyPassword(user.HashedPassword, current) {
		return ErrInvalidCredentials
	}
	if err := checkPasswordStrength(next); err != nil {
		return err
	}
	hashed, err := security.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.HashedPassword = hashed
	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", id.String()))
	return nil
}

func checkPasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
