package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateUser creates a new user and returns its ID
func (db *DB) CreateUser(ctx context.Context, name, email string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email)
		 VALUES ($1, $2)
		 RETURNING id`,
		name, email,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by ID. Returns nil, nil when not found.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	var skillsJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(industry, ''), COALESCE(experience_years, 0),
		        skills, COALESCE(bio, ''), password_hash IS NOT NULL, created_at, updated_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Industry, &user.ExperienceYears,
		&skillsJSON, &user.Bio, &user.PasswordSet, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &user.Skills)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user and password hash by email. Returns nil when not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, string, error) {
	var user User
	var skillsJSON []byte
	var passwordHash *string
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(industry, ''), COALESCE(experience_years, 0),
		        skills, COALESCE(bio, ''), password_hash, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Industry, &user.ExperienceYears,
		&skillsJSON, &user.Bio, &passwordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &user.Skills)
	}

	hash := ""
	if passwordHash != nil {
		hash = *passwordHash
		user.PasswordSet = true
	}

	return &user, hash, nil
}

// CheckEmailExists reports whether a user with the given email exists
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdatePassword sets the password hash for a user
func (db *DB) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ProfileUpdate holds the career profile fields a user can change
type ProfileUpdate struct {
	Industry        string
	ExperienceYears int
	Skills          []string
	Bio             string
}

// UpdateProfile updates a user's career profile fields
func (db *DB) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) error {
	skillsJSON, err := json.Marshal(update.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE users
		 SET industry = $1, experience_years = $2, skills = $3, bio = $4, updated_at = NOW()
		 WHERE id = $5`,
		update.Industry, update.ExperienceYears, skillsJSON, update.Bio, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
