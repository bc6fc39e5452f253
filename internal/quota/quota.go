// Package quota bounds how many artifacts a user may generate within a
// trailing time window. Counts come from the persisted artifact timestamps, so
// the check is read-then-act: two concurrent requests can both pass before
// either row lands. That overshoot is bounded by the degree of concurrency and
// accepted for these soft per-user quotas.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/artifacts"
)

// Limit describes a per-operation quota: at most Max artifacts per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Describe renders the window for error messages ("10 per 24h0m0s" reads
// poorly, so day/hour windows get friendly names).
func (l Limit) Describe() string {
	switch l.Window {
	case 24 * time.Hour:
		return fmt.Sprintf("%d per day", l.Max)
	case time.Hour:
		return fmt.Sprintf("%d per hour", l.Max)
	default:
		return fmt.Sprintf("%d per %s", l.Max, l.Window)
	}
}

// Per-operation quotas.
var Limits = map[artifacts.Type]Limit{
	artifacts.TypeCoverLetter:   {Max: 10, Window: 24 * time.Hour},
	artifacts.TypeQuiz:          {Max: 5, Window: 24 * time.Hour},
	artifacts.TypeResumeSection: {Max: 20, Window: time.Hour},
}

// QuotaExceededError indicates the subject has already reached the configured
// quota for the window.
type QuotaExceededError struct {
	ArtifactType artifacts.Type
	Limit        Limit
	Observed     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: limit is %s, %d generated in the current window",
		e.ArtifactType, e.Limit.Describe(), e.Observed)
}

// ArtifactCounter counts a subject's persisted artifacts of a given type
// created at or after a cutoff time.
type ArtifactCounter interface {
	CountArtifactsSince(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type, since time.Time) (int, error)
}

// Checker enforces per-operation quotas against a counting collaborator.
type Checker struct {
	counter ArtifactCounter
	now     func() time.Time
}

// NewChecker creates a quota checker backed by the given counter.
func NewChecker(counter ArtifactCounter) *Checker {
	return &Checker{counter: counter, now: time.Now}
}

// Check fails with QuotaExceededError when the subject's artifact count within
// the trailing window has already reached the configured maximum. Artifact
// types without a configured limit are unrestricted.
func (c *Checker) Check(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error {
	limit, ok := Limits[artifactType]
	if !ok {
		return nil
	}

	since := c.now().Add(-limit.Window)
	count, err := c.counter.CountArtifactsSince(ctx, userID, artifactType, since)
	if err != nil {
		return fmt.Errorf("failed to count recent artifacts: %w", err)
	}

	if count >= limit.Max {
		return &QuotaExceededError{ArtifactType: artifactType, Limit: limit, Observed: count}
	}

	return nil
}
