package server

import (
	"github.com/jonathan/career-coach/internal/db"
)

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePasswordRequest is the payload for changing a password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// AuthResponse carries the user and a signed session token.
type AuthResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// UpdateProfileRequest is the payload for updating career profile fields.
type UpdateProfileRequest struct {
	Industry        string   `json:"industry" validate:"required,min=1,max=100"`
	ExperienceYears int      `json:"experienceYears" validate:"min=0,max=80"`
	Skills          []string `json:"skills" validate:"max=50,dive,min=1,max=100"`
	Bio             string   `json:"bio" validate:"max=2000"`
}

// ImproveSectionRequest is the payload for rewriting a resume entry.
type ImproveSectionRequest struct {
	SectionType string `json:"sectionType" validate:"required,oneof=experience education project summary"`
	Current     string `json:"current" validate:"required,min=1,max=4000"`
}

// SaveResumeRequest is the payload for storing a resume.
type SaveResumeRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// SaveAssessmentRequest is the payload for recording a completed quiz.
type SaveAssessmentRequest struct {
	Score     float64            `json:"score" validate:"min=0,max=100"`
	Questions []AnsweredQuestion `json:"questions" validate:"required,min=1,dive"`
}

// AnsweredQuestion is one answered quiz question in a submission.
type AnsweredQuestion struct {
	Question      string `json:"question" validate:"required"`
	CorrectAnswer string `json:"answer" validate:"required"`
	UserAnswer    string `json:"userAnswer" validate:"required"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}
