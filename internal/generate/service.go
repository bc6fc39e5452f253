// Package generate orchestrates the AI-backed content operations: quota
// check, prompt assembly, model call with retries, output validation,
// and persistence streamed through a single service.
package generate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/artifacts"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/prompts"
	"github.com/jonathan/career-coach/internal/retry"
	"github.com/jonathan/career-coach/internal/schemas"
)

// NotFoundError indicates the referenced record does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Store is the persistence surface the generation operations need.
type Store interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	CreateCoverLetter(ctx context.Context, userID uuid.UUID, content, companyName, jobTitle, jobDescription string) (*db.CoverLetter, error)
	CreateAssessment(ctx context.Context, userID uuid.UUID, score float64, questions []db.AssessmentQuestion, category, improvementTip string) (*db.Assessment, error)
	UpsertResume(ctx context.Context, userID uuid.UUID, content string) (*db.Resume, error)
	GetResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error)
	UpdateResumeAnalysis(ctx context.Context, userID uuid.UUID, analysis *artifacts.ResumeAnalysis) error
	RecordArtifact(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error
}

// QuotaChecker gates an operation on the caller's recent usage.
type QuotaChecker interface {
	Check(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error
}

type Service struct {
	store      Store
	client     llm.Client
	executor   *retry.Executor
	quota      QuotaChecker
	maxRetries int
	logger     log.Logger
}

func NewService(store Store, client llm.Client, executor *retry.Executor, quota QuotaChecker, maxRetries int, logger log.Logger) *Service {
	return &Service{
		store:      store,
		client:     client,
		executor:   executor,
		quota:      quota,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// CoverLetterRequest carries the job posting a cover letter targets.
type CoverLetterRequest struct {
	CompanyName    string `json:"companyName" validate:"required"`
	JobTitle       string `json:"jobTitle" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

// GenerateCoverLetter produces and persists a cover letter tailored to
// the user's profile and the given job posting.
func (s *Service) GenerateCoverLetter(ctx context.Context, userID uuid.UUID, req CoverLetterRequest) (*db.CoverLetter, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err := s.quota.Check(ctx, userID, artifacts.TypeCoverLetter); err != nil {
		return nil, err
	}

	prompt := prompts.Format(prompts.MustGet("generation.json", "cover-letter"), map[string]string{
		"Role":           req.JobTitle,
		"Company":        req.CompanyName,
		"Industry":       user.Industry,
		"Experience":     strconv.Itoa(user.ExperienceYears),
		"Skills":         strings.Join(user.Skills, ", "),
		"Bio":            user.Bio,
		"JobDescription": req.JobDescription,
	})

	var content string
	err = s.executor.Do(ctx, "cover-letter", func(ctx context.Context) error {
		raw, err := s.client.GenerateContent(ctx, prompt, llm.TierStandard)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(llm.CleanJSONBlock(raw))
		if err := schemas.ValidateFreeText(text); err != nil {
			return err
		}
		content = text
		return nil
	}, s.maxRetries)
	if err != nil {
		return nil, err
	}

	letter, err := s.store.CreateCoverLetter(ctx, userID, content, req.CompanyName, req.JobTitle, req.JobDescription)
	if err != nil {
		return nil, err
	}
	s.recordArtifact(ctx, userID, artifacts.TypeCoverLetter)
	return letter, nil
}

// GenerateQuiz produces a validated ten-question interview quiz for the
// user's industry and skills. The quiz is returned, not stored; storage
// happens when the user submits answers via SaveQuizResult.
func (s *Service) GenerateQuiz(ctx context.Context, userID uuid.UUID) (*artifacts.Quiz, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err := s.quota.Check(ctx, userID, artifacts.TypeQuiz); err != nil {
		return nil, err
	}

	skillsClause := ""
	if len(user.Skills) > 0 {
		skillsClause = prompts.Format(prompts.MustGet("generation.json", "quiz-skills-clause"), map[string]string{
			"Skills": strings.Join(user.Skills, ", "),
		})
	}
	prompt := prompts.Format(prompts.MustGet("generation.json", "quiz"), map[string]string{
		"Industry":     user.Industry,
		"SkillsClause": skillsClause,
	})

	var quiz *artifacts.Quiz
	err = s.executor.Do(ctx, "quiz", func(ctx context.Context) error {
		raw, err := s.client.GenerateContent(ctx, prompt, llm.TierStandard)
		if err != nil {
			return err
		}
		decoded, err := schemas.DecodeQuiz(llm.CleanJSONBlock(raw))
		if err != nil {
			return err
		}
		quiz = decoded
		return nil
	}, s.maxRetries)
	if err != nil {
		return nil, err
	}

	s.recordArtifact(ctx, userID, artifacts.TypeQuiz)
	return quiz, nil
}

// SaveQuizResult stores a completed quiz attempt. When the user missed
// questions, a short improvement tip is generated best-effort; a tip
// failure never blocks saving the assessment.
func (s *Service) SaveQuizResult(ctx context.Context, userID uuid.UUID, questions []db.AssessmentQuestion, score float64) (*db.Assessment, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	tip := ""
	if wrong := wrongAnswers(questions); len(wrong) > 0 {
		tip, err = s.improvementTip(ctx, user.Industry, wrong)
		if err != nil {
			s.logger.Warn().Str("user_id", userID.String()).Err(err).Msg("improvement tip generation failed, saving without tip")
			tip = ""
		}
	}

	return s.store.CreateAssessment(ctx, userID, score, questions, "Technical", tip)
}

func wrongAnswers(questions []db.AssessmentQuestion) []db.AssessmentQuestion {
	var wrong []db.AssessmentQuestion
	for _, q := range questions {
		if !q.IsCorrect {
			wrong = append(wrong, q)
		}
	}
	return wrong
}

func (s *Service) improvementTip(ctx context.Context, industry string, wrong []db.AssessmentQuestion) (string, error) {
	var sb strings.Builder
	for _, q := range wrong {
		fmt.Fprintf(&sb, "Question: %q\nCorrect answer: %q\nUser's answer: %q\n\n", q.Question, q.CorrectAnswer, q.UserAnswer)
	}
	prompt := prompts.Format(prompts.MustGet("generation.json", "improvement-tip"), map[string]string{
		"Industry":       industry,
		"WrongQuestions": sb.String(),
	})

	raw, err := s.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// ImproveResumeSection rewrites one resume entry's description.
func (s *Service) ImproveResumeSection(ctx context.Context, userID uuid.UUID, sectionType, current string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", &NotFoundError{Resource: "user"}
	}
	if err := s.quota.Check(ctx, userID, artifacts.TypeResumeSection); err != nil {
		return "", err
	}

	prompt := prompts.Format(prompts.MustGet("generation.json", "improve-resume-section"), map[string]string{
		"SectionType": sectionType,
		"Industry":    user.Industry,
		"Current":     current,
	})

	var improved string
	err = s.executor.Do(ctx, "improve-resume-section", func(ctx context.Context) error {
		raw, err := s.client.GenerateContent(ctx, prompt, llm.TierLite)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(llm.CleanJSONBlock(raw))
		if err := schemas.ValidateFreeText(text); err != nil {
			return err
		}
		improved = text
		return nil
	}, s.maxRetries)
	if err != nil {
		return "", err
	}

	s.recordArtifact(ctx, userID, artifacts.TypeResumeSection)
	return improved, nil
}

// SaveResume stores the user's resume, replacing any previous version
// and clearing its stale analysis.
func (s *Service) SaveResume(ctx context.Context, userID uuid.UUID, content string) (*db.Resume, error) {
	return s.store.UpsertResume(ctx, userID, content)
}

// AnalyzeResume critiques the user's stored resume and persists the
// validated result alongside it.
func (s *Service) AnalyzeResume(ctx context.Context, userID uuid.UUID) (*artifacts.ResumeAnalysis, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	resume, err := s.store.GetResume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if resume == nil {
		return nil, &NotFoundError{Resource: "resume"}
	}

	prompt := prompts.Format(prompts.MustGet("generation.json", "resume-analysis"), map[string]string{
		"Industry": user.Industry,
		"Resume":   resume.Content,
	})

	var analysis *artifacts.ResumeAnalysis
	err = s.executor.Do(ctx, "resume-analysis", func(ctx context.Context) error {
		raw, err := s.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
		if err != nil {
			return err
		}
		decoded, err := schemas.DecodeResumeAnalysis(llm.CleanJSONBlock(raw))
		if err != nil {
			return err
		}
		analysis = decoded
		return nil
	}, s.maxRetries)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateResumeAnalysis(ctx, userID, analysis); err != nil {
		return nil, err
	}
	s.recordArtifact(ctx, userID, artifacts.TypeResumeAnalysis)
	return analysis, nil
}

// recordArtifact logs usage for quota accounting. A bookkeeping failure
// is logged rather than surfaced; the artifact itself already succeeded.
func (s *Service) recordArtifact(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) {
	if err := s.store.RecordArtifact(ctx, userID, artifactType); err != nil {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("artifact_type", string(artifactType)).
			Err(err).
			Msg("failed to record artifact event")
	}
}
