package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CreateAssessment stores a completed quiz attempt
func (db *DB) CreateAssessment(ctx context.Context, userID uuid.UUID, score float64, questions []AssessmentQuestion, category, improvementTip string) (*Assessment, error) {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}

	var assessment Assessment
	err = db.pool.QueryRow(ctx,
		`INSERT INTO assessments (user_id, quiz_score, questions, category, improvement_tip)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, quiz_score, questions, category, COALESCE(improvement_tip, ''), created_at`,
		userID, score, questionsJSON, category, improvementTip,
	).Scan(&assessment.ID, &assessment.UserID, &assessment.QuizScore,
		&questionsJSON, &assessment.Category, &assessment.ImprovementTip, &assessment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	_ = json.Unmarshal(questionsJSON, &assessment.Questions)

	return &assessment, nil
}

// ListAssessments retrieves a user's assessments, oldest first
func (db *DB) ListAssessments(ctx context.Context, userID uuid.UUID) ([]Assessment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, quiz_score, questions, category, COALESCE(improvement_tip, ''), created_at
		 FROM assessments WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []Assessment
	for rows.Next() {
		var assessment Assessment
		var questionsJSON []byte
		if err := rows.Scan(&assessment.ID, &assessment.UserID, &assessment.QuizScore,
			&questionsJSON, &assessment.Category, &assessment.ImprovementTip, &assessment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if questionsJSON != nil {
			_ = json.Unmarshal(questionsJSON, &assessment.Questions)
		}
		assessments = append(assessments, assessment)
	}
	return assessments, nil
}
