package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateCoverLetter stores a generated cover letter for a user
func (db *DB) CreateCoverLetter(ctx context.Context, userID uuid.UUID, content, companyName, jobTitle, jobDescription string) (*CoverLetter, error) {
	var letter CoverLetter
	err := db.pool.QueryRow(ctx,
		`INSERT INTO cover_letters (user_id, content, company_name, job_title, job_description, status)
		 VALUES ($1, $2, $3, $4, $5, 'completed')
		 RETURNING id, user_id, content, company_name, job_title, COALESCE(job_description, ''), status, created_at`,
		userID, content, companyName, jobTitle, jobDescription,
	).Scan(&letter.ID, &letter.UserID, &letter.Content, &letter.CompanyName,
		&letter.JobTitle, &letter.JobDescription, &letter.Status, &letter.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover letter: %w", err)
	}
	return &letter, nil
}

// GetCoverLetter retrieves one of a user's cover letters. Returns nil, nil when not found.
func (db *DB) GetCoverLetter(ctx context.Context, userID, letterID uuid.UUID) (*CoverLetter, error) {
	var letter CoverLetter
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, content, company_name, job_title, COALESCE(job_description, ''), status, created_at
		 FROM cover_letters WHERE id = $1 AND user_id = $2`,
		letterID, userID,
	).Scan(&letter.ID, &letter.UserID, &letter.Content, &letter.CompanyName,
		&letter.JobTitle, &letter.JobDescription, &letter.Status, &letter.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cover letter: %w", err)
	}
	return &letter, nil
}

// ListCoverLetters retrieves a user's cover letters, newest first
func (db *DB) ListCoverLetters(ctx context.Context, userID uuid.UUID) ([]CoverLetter, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, content, company_name, job_title, COALESCE(job_description, ''), status, created_at
		 FROM cover_letters WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cover letters: %w", err)
	}
	defer rows.Close()

	var letters []CoverLetter
	for rows.Next() {
		var letter CoverLetter
		if err := rows.Scan(&letter.ID, &letter.UserID, &letter.Content, &letter.CompanyName,
			&letter.JobTitle, &letter.JobDescription, &letter.Status, &letter.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cover letter: %w", err)
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

// DeleteCoverLetter deletes one of a user's cover letters. Deleting an absent
// record is treated as success.
func (db *DB) DeleteCoverLetter(ctx context.Context, userID, letterID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM cover_letters WHERE id = $1 AND user_id = $2`,
		letterID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cover letter: %w", err)
	}
	return nil
}
