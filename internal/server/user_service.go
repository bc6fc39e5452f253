package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
)

// AuthStore is the persistence surface for account operations.
type AuthStore interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email string) (uuid.UUID, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, update db.ProfileUpdate) error
}

// UserService provides business logic for account and profile operations.
type UserService struct {
	store     AuthStore
	passwords *config.PasswordConfig
}

func NewUserService(store AuthStore, passwords *config.PasswordConfig) *UserService {
	return &UserService{store: store, passwords: passwords}
}

// Register creates a new user with password authentication.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*db.User, error) {
	exists, err := s.store.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.store.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}
	return user, nil
}

// Login authenticates a user. Missing users and wrong passwords return
// the same error so the response does not leak which emails exist.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*db.User, error) {
	user, hash, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil || !user.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwords.VerifyPassword(req.Password, hash) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// UpdatePassword changes a user's password after verifying the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return &ErrUserNotFound{UserID: userID}
	}

	_, hash, err := s.store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to get password hash: %w", err)
	}
	if !s.passwords.VerifyPassword(currentPassword, hash) {
		return &ErrPasswordMismatch{}
	}

	newHash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfile replaces a user's career profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*db.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}

	update := db.ProfileUpdate{
		Industry:        req.Industry,
		ExperienceYears: req.ExperienceYears,
		Skills:          req.Skills,
		Bio:             req.Bio,
	}
	if err := s.store.UpdateProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	updated, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated user: %w", err)
	}
	return updated, nil
}
