// Package insights manages the per-industry market report cache: deciding
// staleness, serving cached reports, and orchestrating refreshes through the
// retry executor.
package insights

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/artifacts"
	"github.com/jonathan/career-coach/internal/db"
)

// StalenessWindow is the interval after which a cached industry report must be
// regenerated. A record with next_update in the past is stale.
const StalenessWindow = 7 * 24 * time.Hour

// IsStale reports whether the record's freshness window has lapsed.
func IsStale(record *db.IndustryInsight, now time.Time) bool {
	return now.After(record.NextUpdate)
}

// Placeholder returns the neutral report used when an industry record is
// created before any generation has succeeded.
func Placeholder() *artifacts.IndustryInsight {
	return &artifacts.IndustryInsight{
		SalaryRanges:      []artifacts.SalaryRange{},
		GrowthRate:        0,
		DemandLevel:       artifacts.DemandMedium,
		TopSkills:         []string{},
		MarketOutlook:     artifacts.OutlookNeutral,
		KeyTrends:         []string{},
		RecommendedSkills: []string{},
	}
}

// Store is the persistence surface the manager needs.
type Store interface {
	GetInsightByIndustry(ctx context.Context, industry string) (*db.IndustryInsight, error)
	UpsertInsight(ctx context.Context, industry string, report *artifacts.IndustryInsight, lastUpdated, nextUpdate time.Time) (*db.IndustryInsight, error)
}

// ReportGenerator produces a validated industry report.
type ReportGenerator interface {
	Generate(ctx context.Context, industry string) (*artifacts.IndustryInsight, error)
}

// Manager decides per-industry cache state and orchestrates refresh-or-serve.
type Manager struct {
	store  Store
	gen    ReportGenerator
	logger log.Logger
	now    func() time.Time
}

// NewManager creates an insight cache manager.
func NewManager(store Store, gen ReportGenerator, logger log.Logger) *Manager {
	return &Manager{store: store, gen: gen, logger: logger, now: time.Now}
}

// GetOrRefresh returns the insight record for an industry, creating or
// refreshing it as its cache state requires.
//
// Absent: a placeholder with neutral defaults is persisted first, then a
// best-effort refresh runs; if that refresh fails the placeholder is returned
// and the failure swallowed, so profile setup never blocks on AI availability.
// Fresh: the cached record is returned with no generation call.
// Stale: a synchronous refresh runs and its failure propagates; stale data is
// never silently served when a refresh was attempted.
func (m *Manager) GetOrRefresh(ctx context.Context, industry string) (*db.IndustryInsight, error) {
	record, err := m.store.GetInsightByIndustry(ctx, industry)
	if err != nil {
		return nil, err
	}

	if record == nil {
		now := m.now()
		record, err = m.store.UpsertInsight(ctx, industry, Placeholder(), now, now.Add(StalenessWindow))
		if err != nil {
			return nil, err
		}

		refreshed, err := m.Refresh(ctx, industry)
		if err != nil {
			m.logger.Warn().
				Str("industry", industry).
				Err(err).
				Msg("best-effort insight refresh failed, keeping placeholder")
			return record, nil
		}
		return refreshed, nil
	}

	if !IsStale(record, m.now()) {
		return record, nil
	}

	return m.Refresh(ctx, industry)
}

// Refresh regenerates the industry report and overwrites the record wholesale,
// advancing the freshness window. Generation failure propagates to the caller.
func (m *Manager) Refresh(ctx context.Context, industry string) (*db.IndustryInsight, error) {
	report, err := m.gen.Generate(ctx, industry)
	if err != nil {
		return nil, err
	}

	now := m.now()
	record, err := m.store.UpsertInsight(ctx, industry, report, now, now.Add(StalenessWindow))
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("industry", industry).
		Time("next_update", record.NextUpdate).
		Msg("industry insight refreshed")

	return record, nil
}
