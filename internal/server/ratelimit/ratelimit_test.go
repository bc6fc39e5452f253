package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/quizzes", Method: "POST", Limit: 60, Window: time.Minute, Burst: 2},
			{Path: "/cover-letters/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		},
	}
}

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	allowed, _ := l.Allow("1.2.3.4", "/quizzes", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("1.2.3.4", "/quizzes", "POST")
	assert.True(t, allowed)

	allowed, info := l.Allow("1.2.3.4", "/quizzes", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 60, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsIsolated(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/quizzes", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("1.2.3.4", "/quizzes", "POST")
	require.False(t, allowed)

	// A different client still has a full bucket.
	allowed, _ = l.Allow("5.6.7.8", "/quizzes", "POST")
	assert.True(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/quizzes", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_DefaultLimitForUnmatchedEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLimit = 3
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/assessments", "GET")
		require.True(t, allowed, fmt.Sprintf("request %d should be allowed", i+1))
	}
	allowed, _ := l.Allow("1.2.3.4", "/assessments", "GET")
	assert.False(t, allowed)
}

func TestMatchEndpoint_HealthUnlimited(t *testing.T) {
	ec := MatchEndpoint("/health", "GET", DefaultEndpointConfigs())
	require.NotNil(t, ec)
	assert.Zero(t, ec.Limit)
}

func TestMatchEndpoint_PrefixMatch(t *testing.T) {
	configs := testConfig().EndpointConfigs
	ec := MatchEndpoint("/cover-letters/b2a7c9", "DELETE", configs)
	require.NotNil(t, ec)
	assert.Equal(t, "/cover-letters/", ec.Path)

	assert.Nil(t, MatchEndpoint("/cover-letters/b2a7c9", "GET", configs))
}
