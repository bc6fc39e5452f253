package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-coach/internal/artifacts"
)

// UpsertResume creates or replaces a user's resume content. Each user has at
// most one resume; saving new content clears any previous analysis.
func (db *DB) UpsertResume(ctx context.Context, userID uuid.UUID, content string) (*Resume, error) {
	var resume Resume
	err := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, content)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET content = $2, analysis = NULL, updated_at = NOW()
		 RETURNING id, user_id, content, created_at, updated_at`,
		userID, content,
	).Scan(&resume.ID, &resume.UserID, &resume.Content, &resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert resume: %w", err)
	}
	return &resume, nil
}

// GetResume retrieves a user's resume. Returns nil, nil when not found.
func (db *DB) GetResume(ctx context.Context, userID uuid.UUID) (*Resume, error) {
	var resume Resume
	var analysisJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, content, analysis, created_at, updated_at
		 FROM resumes WHERE user_id = $1`,
		userID,
	).Scan(&resume.ID, &resume.UserID, &resume.Content, &analysisJSON, &resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	if analysisJSON != nil {
		var analysis artifacts.ResumeAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err == nil {
			resume.Analysis = &analysis
		}
	}

	return &resume, nil
}

// UpdateResumeAnalysis stores an AI critique on a user's resume row
func (db *DB) UpdateResumeAnalysis(ctx context.Context, userID uuid.UUID, analysis *artifacts.ResumeAnalysis) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE resumes SET analysis = $1, updated_at = NOW() WHERE user_id = $2`,
		analysisJSON, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resume analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resume not found for user: %s", userID)
	}
	return nil
}
