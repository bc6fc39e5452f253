package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-coach/internal/artifacts"
)

// GetInsightByIndustry retrieves the cached insight record for an industry.
// Returns nil, nil when no record exists.
func (db *DB) GetInsightByIndustry(ctx context.Context, industry string) (*IndustryInsight, error) {
	var insight IndustryInsight
	var salaryJSON, skillsJSON, trendsJSON, recommendedJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, industry, salary_ranges, growth_rate, demand_level, top_skills,
		        market_outlook, key_trends, recommended_skills, last_updated, next_update
		 FROM industry_insights WHERE industry = $1`,
		industry,
	).Scan(&insight.ID, &insight.Industry, &salaryJSON, &insight.GrowthRate,
		&insight.DemandLevel, &skillsJSON, &insight.MarketOutlook,
		&trendsJSON, &recommendedJSON, &insight.LastUpdated, &insight.NextUpdate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get industry insight: %w", err)
	}

	if salaryJSON != nil {
		_ = json.Unmarshal(salaryJSON, &insight.SalaryRanges)
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &insight.TopSkills)
	}
	if trendsJSON != nil {
		_ = json.Unmarshal(trendsJSON, &insight.KeyTrends)
	}
	if recommendedJSON != nil {
		_ = json.Unmarshal(recommendedJSON, &insight.RecommendedSkills)
	}

	return &insight, nil
}

// UpsertInsight creates or overwrites the insight record for an industry.
// Every insight field is replaced wholesale; there is no partial-field merge,
// so a lost race between two refreshes is last-writer-wins on a complete
// record rather than a torn one.
func (db *DB) UpsertInsight(ctx context.Context, industry string, report *artifacts.IndustryInsight, lastUpdated, nextUpdate time.Time) (*IndustryInsight, error) {
	salaryJSON, err := json.Marshal(report.SalaryRanges)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal salary ranges: %w", err)
	}
	skillsJSON, err := json.Marshal(report.TopSkills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal top skills: %w", err)
	}
	trendsJSON, err := json.Marshal(report.KeyTrends)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key trends: %w", err)
	}
	recommendedJSON, err := json.Marshal(report.RecommendedSkills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommended skills: %w", err)
	}

	var insight IndustryInsight
	err = db.pool.QueryRow(ctx,
		`INSERT INTO industry_insights
		   (industry, salary_ranges, growth_rate, demand_level, top_skills,
		    market_outlook, key_trends, recommended_skills, last_updated, next_update)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (industry) DO UPDATE SET
		   salary_ranges = $2, growth_rate = $3, demand_level = $4, top_skills = $5,
		   market_outlook = $6, key_trends = $7, recommended_skills = $8,
		   last_updated = $9, next_update = $10
		 RETURNING id, industry, salary_ranges, growth_rate, demand_level, top_skills,
		           market_outlook, key_trends, recommended_skills, last_updated, next_update`,
		industry, salaryJSON, report.GrowthRate, string(report.DemandLevel), skillsJSON,
		string(report.MarketOutlook), trendsJSON, recommendedJSON, lastUpdated, nextUpdate,
	).Scan(&insight.ID, &insight.Industry, &salaryJSON, &insight.GrowthRate,
		&insight.DemandLevel, &skillsJSON, &insight.MarketOutlook,
		&trendsJSON, &recommendedJSON, &insight.LastUpdated, &insight.NextUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert industry insight: %w", err)
	}

	_ = json.Unmarshal(salaryJSON, &insight.SalaryRanges)
	_ = json.Unmarshal(skillsJSON, &insight.TopSkills)
	_ = json.Unmarshal(trendsJSON, &insight.KeyTrends)
	_ = json.Unmarshal(recommendedJSON, &insight.RecommendedSkills)

	return &insight, nil
}

// ListInsightIndustries returns the distinct industry keys currently present
// in the insight store, in insertion order.
func (db *DB) ListInsightIndustries(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT industry FROM industry_insights ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list insight industries: %w", err)
	}
	defer rows.Close()

	var industries []string
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, fmt.Errorf("failed to scan industry: %w", err)
		}
		industries = append(industries, industry)
	}
	return industries, nil
}
