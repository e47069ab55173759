package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/repository"
)

var ErrInvalidVisibility = errors.New("invalid profile visibility")

// ProfileUpdate applies a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName   *string    `json:"first_name"`
	LastName    *string    `json:"last_name"`
	PhoneNumber *string    `json:"phone_number"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Bio         *string    `json:"bio"`
	AvatarURL   *string    `json:"avatar_url"`
	Location    *string    `json:"location"`
	Website     *string    `json:"website"`
	Company     *string    `json:"company"`
	JobTitle    *string    `json:"job_title"`
	LinkedinURL *string    `json:"linkedin_url"`
	TwitterURL  *string    `json:"twitter_url"`
	GithubURL   *string    `json:"github_url"`
	Visibility  *string    `json:"visibility"`
	ShowEmail   *bool      `json:"show_email"`
	ShowPhone   *bool      `json:"show_phone"`
}

// ProfileService manages the one-per-user extended profile. Reads create the
// profile on first access so callers never deal with a missing row.
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error
}

type profileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, users repository.UserRepository, logger *slog.Logger) ProfileService {
	return &profileService{profiles: profiles, users: users, logger: logger}
}

// GetProfile returns the user's profile, creating an empty private one on
// first access.
func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.FindByUserID(userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	exists, err := s.users.Exists(userID)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return nil, repository.ErrUserNotFound
	}

	fresh := &domain.Profile{UserID: userID, Visibility: domain.ProfilePrivate}
	if err := s.profiles.Create(fresh); err != nil {
		if errors.Is(err, repository.ErrDuplicateResource) {
			// Lost a race with a concurrent first access.
			return s.profiles.FindByUserID(userID)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile created", slog.String("user_id", userID.String()))
	return fresh, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*domain.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Visibility != nil {
		visibility, ok := parseVisibility(*upd.Visibility)
		if !ok {
			return nil, ErrInvalidVisibility
		}
		profile.Visibility = visibility
	}
	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyString(&profile.FirstName, upd.FirstName)
	applyString(&profile.LastName, upd.LastName)
	applyString(&profile.PhoneNumber, upd.PhoneNumber)
	applyString(&profile.Bio, upd.Bio)
	applyString(&profile.AvatarURL, upd.AvatarURL)
	applyString(&profile.Location, upd.Location)
	applyString(&profile.Website, upd.Website)
	applyString(&profile.Company, upd.Company)
	applyString(&profile.JobTitle, upd.JobTitle)
	applyString(&profile.LinkedinURL, upd.LinkedinURL)
	applyString(&profile.TwitterURL, upd.TwitterURL)
	applyString(&profile.GithubURL, upd.GithubURL)
	if upd.DateOfBirth != nil {
		profile.DateOfBirth = upd.DateOfBirth
	}
	if upd.ShowEmail != nil {
		profile.ShowEmail = *upd.ShowEmail
	}
	if upd.ShowPhone != nil {
		profile.ShowPhone = *upd.ShowPhone
	}

	if err := s.profiles.Update(profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", userID.String()))
	return profile, nil
}

func (s *profileService) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if err := s.profiles.DeleteByUserID(userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "profile deleted", slog.String("user_id", userID.String()))
	return nil
}

func parseVisibility(raw string) (domain.ProfileVisibility, bool) {
	switch domain.ProfileVisibility(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.ProfilePublic:
		return domain.ProfilePublic, true
	case domain.ProfilePrivate:
		return domain.ProfilePrivate, true
	case domain.ProfileFriends:
		return domain.ProfileFriends, true
	}
	return "", false
}
