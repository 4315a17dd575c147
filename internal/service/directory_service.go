package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// Profile is the directory view of a user. For authenticated callers
// without a directory record the profile is synthetic: display name from
// the identity provider, nil created_at.
type Profile struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	CreatedAt   *time.Time `json:"created_at"`
}

// DirectoryService provides the lazy user directory: records are created
// on first contact and display names kept in sync with the identity
// provider.
type DirectoryService interface {
	// ResolveOrCreate looks up a user by email (case-insensitive),
	// creating the record when absent. A non-empty display name differing
	// from the stored one updates it. At most one insert or one update
	// per call.
	ResolveOrCreate(ctx context.Context, email, displayName string) (uuid.UUID, error)

	// GetProfile returns the directory profile for an email, or a
	// synthetic profile when no record exists yet. A directory miss must
	// never fail an authenticated caller.
	GetProfile(ctx context.Context, email, fallbackName string) (*Profile, error)

	// UpdateProfile sets the caller's display name, creating the
	// directory record when absent.
	UpdateProfile(ctx context.Context, email, displayName string) (*Profile, error)
}

// directoryServiceImpl implements the DirectoryService interface.
type directoryServiceImpl struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewDirectoryService creates a new DirectoryService.
// It returns an error if any of the required dependencies are nil.
func NewDirectoryService(
	userStore store.UserStore,
	logger *slog.Logger,
) (DirectoryService, error) {
	if userStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "userStore cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &directoryServiceImpl{
		userStore: userStore,
		logger:    logger.With("component", "directory_service"),
	}, nil
}

// resolveOrCreateUser is the shared merge step behind ResolveOrCreate. It
// is store-scoped rather than service-scoped so the request service can
// run it against a transactional store.
func resolveOrCreateUser(
	ctx context.Context,
	users store.UserStore,
	email, displayName string,
	logger *slog.Logger,
) (*domain.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err == nil {
		displayName = domain.TrimDisplayName(displayName)
		if displayName != "" && displayName != user.DisplayName {
			if err := users.UpdateDisplayName(ctx, user.ID, displayName); err != nil {
				return nil, err
			}
			user.DisplayName = displayName
			logger.Debug("display name refreshed from identity provider",
				"user_id", user.ID)
		}
		return user, nil
	}

	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	user, err = domain.NewUser(email, displayName)
	if err != nil {
		return nil, err
	}

	if err := users.Create(ctx, user); err != nil {
		// Another call created the same email first; use their row.
		if errors.Is(err, store.ErrEmailExists) {
			return users.GetByEmail(ctx, email)
		}
		return nil, err
	}

	logger.Info("user created on first contact", "user_id", user.ID)
	return user, nil
}

// ResolveOrCreate implements DirectoryService.ResolveOrCreate.
func (s *directoryServiceImpl) ResolveOrCreate(
	ctx context.Context,
	email, displayName string,
) (uuid.UUID, error) {
	user, err := resolveOrCreateUser(ctx, s.userStore, email, displayName, s.logger)
	if err != nil {
		s.logger.Error("failed to resolve or create user", "error", err)
		return uuid.Nil, newServiceError("resolve_or_create", "failed to resolve user", err)
	}
	return user.ID, nil
}

// GetProfile implements DirectoryService.GetProfile.
func (s *directoryServiceImpl) GetProfile(
	ctx context.Context,
	email, fallbackName string,
) (*Profile, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Authenticated but not yet in the directory; answer with what
			// the identity provider gave us.
			return &Profile{
				Email:       domain.NormalizeEmail(email),
				DisplayName: domain.TrimDisplayName(fallbackName),
				CreatedAt:   nil,
			}, nil
		}
		s.logger.Error("failed to load profile", "error", err)
		return nil, newServiceError("get_profile", "failed to load profile", err)
	}

	createdAt := user.CreatedAt
	return &Profile{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   &createdAt,
	}, nil
}

// UpdateProfile implements DirectoryService.UpdateProfile.
func (s *directoryServiceImpl) UpdateProfile(
	ctx context.Context,
	email, displayName string,
) (*Profile, error) {
	displayName = domain.TrimDisplayName(displayName)
	if displayName == "" {
		return nil, ErrInvalidInput
	}

	user, err := resolveOrCreateUser(ctx, s.userStore, email, displayName, s.logger)
	if err != nil {
		s.logger.Error("failed to update profile", "error", err)
		return nil, newServiceError("update_profile", "failed to update profile", err)
	}

	s.logger.Info("profile updated", "user_id", user.ID)

	createdAt := user.CreatedAt
	return &Profile{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   &createdAt,
	}, nil
}
