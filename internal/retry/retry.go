// Package retry wraps generation attempts with bounded retries and backoff.
// Every AI-backed operation routes its generate-sanitize-decode step through an
// Executor so retry policy lives in one place.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/schemas"
)

// FailureKind tags why an attempt failed. Both kinds are currently retried
// uniformly; the tag exists so a no-retry-on-malformed policy is a one-line
// predicate change rather than a rewrite.
type FailureKind string

// Failure kind values.
const (
	// KindTransport covers provider/network faults.
	KindTransport FailureKind = "transport"
	// KindMalformed covers schema-validation failures on AI output.
	KindMalformed FailureKind = "malformed"
)

// Classify maps an attempt error to its failure kind.
func Classify(err error) FailureKind {
	var malformed *schemas.MalformedArtifactError
	if errors.As(err, &malformed) {
		return KindMalformed
	}
	return KindTransport
}

// GenerationUnavailableError indicates all attempts were exhausted.
type GenerationUnavailableError struct {
	Label    string
	Attempts int
	LastErr  error
}

func (e *GenerationUnavailableError) Error() string {
	return fmt.Sprintf("generation unavailable for %s after %d attempts: %v", e.Label, e.Attempts, e.LastErr)
}

func (e *GenerationUnavailableError) Unwrap() error {
	return e.LastErr
}

// DefaultBaseDelay is the default backoff unit between attempts.
const DefaultBaseDelay = 2 * time.Second

// Executor runs attempt functions with bounded retries and backoff that grows
// linearly with the attempt number (base delay x attempt, 1-indexed).
type Executor struct {
	BaseDelay time.Duration
	Logger    log.Logger

	// sleep is swappable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor with the given backoff base delay.
func NewExecutor(baseDelay time.Duration, logger log.Logger) *Executor {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Executor{
		BaseDelay: baseDelay,
		Logger:    logger,
		sleep:     sleepContext,
	}
}

// Do calls attemptFn up to maxRetries+1 times. Transport faults, parse
// failures, and schema failures are all treated as retryable. Between attempts
// it sleeps for BaseDelay x attemptNumber; there is no delay after the final
// attempt. When every attempt fails it returns a GenerationUnavailableError
// wrapping the last underlying error.
func (e *Executor) Do(ctx context.Context, label string, attemptFn func(ctx context.Context) error, maxRetries int) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	sleep := e.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempts := maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := attemptFn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		e.Logger.Warn().
			Str("operation", label).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Str("kind", string(Classify(err))).
			Err(err).
			Msg("generation attempt failed")

		if attempt == attempts {
			break
		}

		if err := sleep(ctx, e.BaseDelay*time.Duration(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	return &GenerationUnavailableError{Label: label, Attempts: attempts, LastErr: lastErr}
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
