package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/artifacts"
)

// RecordArtifact logs one successful generation so quota checks can count a
// user's artifacts within a trailing window without scanning every collection.
func (db *DB) RecordArtifact(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO artifact_events (user_id, artifact_type) VALUES ($1, $2)`,
		userID, string(artifactType),
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact event: %w", err)
	}
	return nil
}

// CountArtifactsSince counts a user's artifacts of a type created at or after
// the cutoff. This implements quota.ArtifactCounter.
func (db *DB) CountArtifactsSince(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type, since time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM artifact_events
		 WHERE user_id = $1 AND artifact_type = $2 AND created_at >= $3`,
		userID, string(artifactType), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count artifact events: %w", err)
	}
	return count, nil
}
