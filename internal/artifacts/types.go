// Package artifacts defines the AI-generated artifact shapes shared across the
// generation, validation, and persistence layers.
package artifacts

import (
	"github.com/google/uuid"
)

// Type identifies an AI-generated artifact kind.
type Type string

// Artifact type constants
const (
	TypeCoverLetter     Type = "cover_letter"
	TypeQuiz            Type = "quiz"
	TypeResumeSection   Type = "resume_section"
	TypeResumeAnalysis  Type = "resume_analysis"
	TypeIndustryInsight Type = "industry_insight"
)

// GenerationRequest describes one invocation of an AI-backed operation.
// It is owned transiently by the invoking operation and never persisted.
type GenerationRequest struct {
	ArtifactType Type              `json:"artifact_type"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	RequesterID  uuid.UUID         `json:"requester_id"`
}

// QuizQuestion is a single multiple-choice question within a quiz.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a validated interview quiz artifact.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// DemandLevel describes labor-market demand for an industry.
type DemandLevel string

// Demand level values accepted by the insight validator.
const (
	DemandHigh   DemandLevel = "HIGH"
	DemandMedium DemandLevel = "MEDIUM"
	DemandLow    DemandLevel = "LOW"
)

// MarketOutlook describes the projected market direction for an industry.
type MarketOutlook string

// Market outlook values accepted by the insight validator.
const (
	OutlookPositive MarketOutlook = "POSITIVE"
	OutlookNeutral  MarketOutlook = "NEUTRAL"
	OutlookNegative MarketOutlook = "NEGATIVE"
)

// SalaryRange is a per-role salary band within an industry report.
type SalaryRange struct {
	Role     string  `json:"role"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Location string  `json:"location,omitempty"`
}

// IndustryInsight is a validated industry market report artifact.
type IndustryInsight struct {
	SalaryRanges      []SalaryRange `json:"salaryRanges"`
	GrowthRate        float64       `json:"growthRate"`
	DemandLevel       DemandLevel   `json:"demandLevel"`
	TopSkills         []string      `json:"topSkills"`
	MarketOutlook     MarketOutlook `json:"marketOutlook"`
	KeyTrends         []string      `json:"keyTrends"`
	RecommendedSkills []string      `json:"recommendedSkills"`
}

// ResumeAnalysis is a validated resume critique artifact.
type ResumeAnalysis struct {
	Score        float64  `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}
