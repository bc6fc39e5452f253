package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-coach/internal/artifacts"
)

type fakeCounter struct {
	count     int
	err       error
	lastSince time.Time
	lastType  artifacts.Type
}

func (f *fakeCounter) CountArtifactsSince(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type, since time.Time) (int, error) {
	f.lastSince = since
	f.lastType = artifactType
	return f.count, f.err
}

func TestCheck_UnderQuota(t *testing.T) {
	counter := &fakeCounter{count: 4}
	checker := NewChecker(counter)

	err := checker.Check(context.Background(), uuid.New(), artifacts.TypeQuiz)
	assert.NoError(t, err)
	assert.Equal(t, artifacts.TypeQuiz, counter.lastType)
}

func TestCheck_AtQuotaFails(t *testing.T) {
	counter := &fakeCounter{count: 5}
	checker := NewChecker(counter)

	err := checker.Check(context.Background(), uuid.New(), artifacts.TypeQuiz)

	var exceeded *QuotaExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 5, exceeded.Limit.Max)
	assert.Equal(t, 5, exceeded.Observed)
	assert.Contains(t, exceeded.Error(), "5 per day")
}

func TestCheck_OverQuotaFails(t *testing.T) {
	counter := &fakeCounter{count: 12}
	checker := NewChecker(counter)

	err := checker.Check(context.Background(), uuid.New(), artifacts.TypeCoverLetter)

	var exceeded *QuotaExceededError
	require.ErrorAs(t, err, &exceeded)
}

func TestCheck_WindowLowerBound(t *testing.T) {
	counter := &fakeCounter{count: 0}
	checker := NewChecker(counter)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	require.NoError(t, checker.Check(context.Background(), uuid.New(), artifacts.TypeResumeSection))
	assert.Equal(t, now.Add(-time.Hour), counter.lastSince)
}

func TestCheck_UnconfiguredTypeUnrestricted(t *testing.T) {
	counter := &fakeCounter{count: 1000}
	checker := NewChecker(counter)

	// Insights are refreshed by the batch job, not user-triggered generation.
	assert.NoError(t, checker.Check(context.Background(), uuid.New(), artifacts.TypeIndustryInsight))
}

func TestCheck_CounterError(t *testing.T) {
	counter := &fakeCounter{err: errors.New("db gone")}
	checker := NewChecker(counter)

	err := checker.Check(context.Background(), uuid.New(), artifacts.TypeQuiz)
	require.Error(t, err)

	var exceeded *QuotaExceededError
	assert.False(t, errors.As(err, &exceeded))
}
