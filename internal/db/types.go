package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/artifacts"
)

// User represents a user record with career profile fields
type User struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Industry        string     `json:"industry,omitempty"`
	ExperienceYears int        `json:"experience_years,omitempty"`
	Skills          []string   `json:"skills,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	PasswordSet     bool       `json:"password_set"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// CoverLetter represents a generated cover letter record
type CoverLetter struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Content        string    `json:"content"`
	CompanyName    string    `json:"company_name"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Assessment represents a completed quiz attempt with scoring
type Assessment struct {
	ID             uuid.UUID                `json:"id"`
	UserID         uuid.UUID                `json:"user_id"`
	QuizScore      float64                  `json:"quiz_score"`
	Questions      []AssessmentQuestion     `json:"questions"`
	Category       string                   `json:"category"`
	ImprovementTip string                   `json:"improvement_tip,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// AssessmentQuestion records one answered question within an assessment
type AssessmentQuestion struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"answer"`
	UserAnswer    string `json:"userAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// Resume represents a user's resume with optional AI analysis
type Resume struct {
	ID           uuid.UUID                 `json:"id"`
	UserID       uuid.UUID                 `json:"user_id"`
	Content      string                    `json:"content"`
	Analysis     *artifacts.ResumeAnalysis `json:"analysis,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    *time.Time                `json:"updated_at,omitempty"`
}

// IndustryInsight represents the cached market report for one industry.
// The industry column is unique; refreshes overwrite every insight field
// wholesale so concurrent writers can only race whole records, never fields.
type IndustryInsight struct {
	ID                uuid.UUID               `json:"id"`
	Industry          string                  `json:"industry"`
	SalaryRanges      []artifacts.SalaryRange `json:"salary_ranges"`
	GrowthRate        float64                 `json:"growth_rate"`
	DemandLevel       string                  `json:"demand_level"`
	TopSkills         []string                `json:"top_skills"`
	MarketOutlook     string                  `json:"market_outlook"`
	KeyTrends         []string                `json:"key_trends"`
	RecommendedSkills []string                `json:"recommended_skills"`
	LastUpdated       time.Time               `json:"last_updated"`
	NextUpdate        time.Time               `json:"next_update"`
}

// BatchRun represents one execution of the scheduled insight refresh job
type BatchRun struct {
	ID          uuid.UUID  `json:"id"`
	Trigger     string     `json:"trigger"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BatchStep represents one durable unit of work within a batch run
type BatchStep struct {
	ID           uuid.UUID  `json:"id"`
	RunID        uuid.UUID  `json:"run_id"`
	Step         string     `json:"step"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DurationMs   *int       `json:"duration_ms,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Batch run/step status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
)
