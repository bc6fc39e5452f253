package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-coach/internal/artifacts"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/quota"
	"github.com/jonathan/career-coach/internal/retry"
	"github.com/jonathan/career-coach/internal/schemas"
)

type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
	tiers     []llm.ModelTier
	call      int
}

func (c *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	i := c.call
	c.call++
	c.prompts = append(c.prompts, prompt)
	c.tiers = append(c.tiers, tier)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func (c *fakeClient) GetModel(tier llm.ModelTier) string { return "fake-model" }
func (c *fakeClient) Close() error                       { return nil }

type fakeGenStore struct {
	users       map[uuid.UUID]*db.User
	resumes     map[uuid.UUID]*db.Resume
	letters     []*db.CoverLetter
	assessments []*db.Assessment
	analyses    map[uuid.UUID]*artifacts.ResumeAnalysis
	events      []artifacts.Type
	recordErr   error
}

func newFakeGenStore() *fakeGenStore {
	return &fakeGenStore{
		users:    make(map[uuid.UUID]*db.User),
		resumes:  make(map[uuid.UUID]*db.Resume),
		analyses: make(map[uuid.UUID]*artifacts.ResumeAnalysis),
	}
}

func (s *fakeGenStore) GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	return s.users[userID], nil
}

func (s *fakeGenStore) CreateCoverLetter(ctx context.Context, userID uuid.UUID, content, companyName, jobTitle, jobDescription string) (*db.CoverLetter, error) {
	letter := &db.CoverLetter{
		ID:             uuid.New(),
		UserID:         userID,
		Content:        content,
		CompanyName:    companyName,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
	}
	s.letters = append(s.letters, letter)
	return letter, nil
}

func (s *fakeGenStore) CreateAssessment(ctx context.Context, userID uuid.UUID, score float64, questions []db.AssessmentQuestion, category, improvementTip string) (*db.Assessment, error) {
	assessment := &db.Assessment{
		ID:             uuid.New(),
		UserID:         userID,
		QuizScore:      score,
		Questions:      questions,
		Category:       category,
		ImprovementTip: improvementTip,
	}
	s.assessments = append(s.assessments, assessment)
	return assessment, nil
}

func (s *fakeGenStore) UpsertResume(ctx context.Context, userID uuid.UUID, content string) (*db.Resume, error) {
	resume := &db.Resume{ID: uuid.New(), UserID: userID, Content: content}
	s.resumes[userID] = resume
	return resume, nil
}

func (s *fakeGenStore) GetResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error) {
	return s.resumes[userID], nil
}

func (s *fakeGenStore) UpdateResumeAnalysis(ctx context.Context, userID uuid.UUID, analysis *artifacts.ResumeAnalysis) error {
	s.analyses[userID] = analysis
	return nil
}

func (s *fakeGenStore) RecordArtifact(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.events = append(s.events, artifactType)
	return nil
}

type allowAllQuota struct{}

func (allowAllQuota) Check(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error {
	return nil
}

type denyQuota struct {
	err error
}

func (d denyQuota) Check(ctx context.Context, userID uuid.UUID, artifactType artifacts.Type) error {
	return d.err
}

func testLogger() log.Logger {
	return log.Logger{Level: log.PanicLevel}
}

func newTestService(store *fakeGenStore, client *fakeClient, checker QuotaChecker) *Service {
	return NewService(store, client, retry.NewExecutor(0, testLogger()), checker, 3, testLogger())
}

func seedUser(store *fakeGenStore, industry string, skills []string) uuid.UUID {
	id := uuid.New()
	store.users[id] = &db.User{
		ID:              id,
		Name:            "Jordan",
		Email:           "jordan@example.com",
		Industry:        industry,
		ExperienceYears: 5,
		Skills:          skills,
		Bio:             "Builds data products.",
	}
	return id
}

func validQuizJSON(t *testing.T) string {
	t.Helper()
	quiz := artifacts.Quiz{}
	for i := 0; i < schemas.QuizQuestionCount; i++ {
		quiz.Questions = append(quiz.Questions, artifacts.QuizQuestion{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
			Explanation:   "Because B.",
		})
	}
	raw, err := json.Marshal(quiz)
	require.NoError(t, err)
	return string(raw)
}

func TestGenerateQuiz_FirstAttemptSucceeds(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Data Science", []string{"Python", "SQL"})
	client := &fakeClient{responses: []string{"```json\n" + validQuizJSON(t) + "\n```"}}
	service := newTestService(store, client, allowAllQuota{})

	quiz, err := service.GenerateQuiz(context.Background(), userID)
	require.NoError(t, err)

	assert.Len(t, quiz.Questions, schemas.QuizQuestionCount)
	assert.Equal(t, 1, client.call)
	assert.Contains(t, client.prompts[0], "Data Science")
	assert.Contains(t, client.prompts[0], "Python, SQL")
	assert.Equal(t, []artifacts.Type{artifacts.TypeQuiz}, store.events)
}

func TestGenerateQuiz_MalformedResponseRetriedThenSucceeds(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	client := &fakeClient{responses: []string{`{"questions": []}`, validQuizJSON(t)}}
	service := newTestService(store, client, allowAllQuota{})

	quiz, err := service.GenerateQuiz(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, schemas.QuizQuestionCount)
	assert.Equal(t, 2, client.call)
}

func TestGenerateQuiz_ExhaustedRetriesReturnUnavailable(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	transportErr := errors.New("connection reset")
	client := &fakeClient{errs: []error{transportErr, transportErr, transportErr, transportErr}}
	service := newTestService(store, client, allowAllQuota{})

	_, err := service.GenerateQuiz(context.Background(), userID)
	var genErr *retry.GenerationUnavailableError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 4, genErr.Attempts)
	assert.Equal(t, 4, client.call)
	assert.Empty(t, store.events)
}

func TestGenerateQuiz_QuotaExceededBeforeModelCall(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	quotaErr := &quota.QuotaExceededError{ArtifactType: artifacts.TypeQuiz, Limit: quota.Limits[artifacts.TypeQuiz], Observed: 5}
	client := &fakeClient{}
	service := newTestService(store, client, denyQuota{err: quotaErr})

	_, err := service.GenerateQuiz(context.Background(), userID)
	var exceeded *quota.QuotaExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Zero(t, client.call)
}

func TestGenerateQuiz_UnknownUser(t *testing.T) {
	store := newFakeGenStore()
	service := newTestService(store, &fakeClient{}, allowAllQuota{})

	_, err := service.GenerateQuiz(context.Background(), uuid.New())
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "user", notFound.Resource)
}

func TestGenerateCoverLetter_StripsFencesAndPersists(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Finance", []string{"Excel"})
	client := &fakeClient{responses: []string{"```\nDear Hiring Manager, I am excited to apply.\n```"}}
	service := newTestService(store, client, allowAllQuota{})

	letter, err := service.GenerateCoverLetter(context.Background(), userID, CoverLetterRequest{
		CompanyName:    "Acme",
		JobTitle:       "Analyst",
		JobDescription: "Crunch numbers.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Dear Hiring Manager, I am excited to apply.", letter.Content)
	assert.Equal(t, "Acme", letter.CompanyName)
	require.Len(t, store.letters, 1)
	assert.Equal(t, []artifacts.Type{artifacts.TypeCoverLetter}, store.events)
	assert.Contains(t, client.prompts[0], "Analyst")
	assert.Contains(t, client.prompts[0], "Acme")
}

func TestGenerateCoverLetter_TooShortOutputRetried(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Finance", nil)
	client := &fakeClient{responses: []string{"ok", "Dear Hiring Manager, here is a proper letter."}}
	service := newTestService(store, client, allowAllQuota{})

	letter, err := service.GenerateCoverLetter(context.Background(), userID, CoverLetterRequest{
		CompanyName:    "Acme",
		JobTitle:       "Analyst",
		JobDescription: "Crunch numbers.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, client.call)
	assert.Equal(t, "Dear Hiring Manager, here is a proper letter.", letter.Content)
}

func TestSaveQuizResult_GeneratesTipForWrongAnswers(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	client := &fakeClient{responses: []string{"Brush up on indexing strategies."}}
	service := newTestService(store, client, allowAllQuota{})

	questions := []db.AssessmentQuestion{
		{Question: "Q1", CorrectAnswer: "A", UserAnswer: "A", IsCorrect: true},
		{Question: "Q2", CorrectAnswer: "B", UserAnswer: "C", IsCorrect: false},
	}
	assessment, err := service.SaveQuizResult(context.Background(), userID, questions, 50)
	require.NoError(t, err)

	assert.Equal(t, "Brush up on indexing strategies.", assessment.ImprovementTip)
	assert.Equal(t, llm.TierLite, client.tiers[0])
	assert.Contains(t, client.prompts[0], "Q2")
	assert.NotContains(t, client.prompts[0], `Question: "Q1"`)
}

func TestSaveQuizResult_PerfectScoreSkipsTip(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	client := &fakeClient{}
	service := newTestService(store, client, allowAllQuota{})

	questions := []db.AssessmentQuestion{
		{Question: "Q1", CorrectAnswer: "A", UserAnswer: "A", IsCorrect: true},
	}
	assessment, err := service.SaveQuizResult(context.Background(), userID, questions, 100)
	require.NoError(t, err)
	assert.Empty(t, assessment.ImprovementTip)
	assert.Zero(t, client.call)
}

func TestSaveQuizResult_TipFailureDoesNotBlockSave(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	client := &fakeClient{errs: []error{errors.New("model offline")}}
	service := newTestService(store, client, allowAllQuota{})

	questions := []db.AssessmentQuestion{
		{Question: "Q1", CorrectAnswer: "A", UserAnswer: "B", IsCorrect: false},
	}
	assessment, err := service.SaveQuizResult(context.Background(), userID, questions, 0)
	require.NoError(t, err)
	assert.Empty(t, assessment.ImprovementTip)
	require.Len(t, store.assessments, 1)
}

func TestAnalyzeResume_PersistsValidatedAnalysis(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	store.resumes[userID] = &db.Resume{UserID: userID, Content: "Engineer with 5 years of Go."}
	client := &fakeClient{responses: []string{`{"score": 82, "strengths": ["clear"], "improvements": ["add metrics"]}`}}
	service := newTestService(store, client, allowAllQuota{})

	analysis, err := service.AnalyzeResume(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, float64(82), analysis.Score)
	assert.Equal(t, analysis, store.analyses[userID])
	assert.Equal(t, llm.TierAdvanced, client.tiers[0])
	assert.Equal(t, []artifacts.Type{artifacts.TypeResumeAnalysis}, store.events)
}

func TestAnalyzeResume_MissingResume(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	service := newTestService(store, &fakeClient{}, allowAllQuota{})

	_, err := service.AnalyzeResume(context.Background(), userID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "resume", notFound.Resource)
}

func TestImproveResumeSection(t *testing.T) {
	store := newFakeGenStore()
	userID := seedUser(store, "Technology", nil)
	client := &fakeClient{responses: []string{"Led migration of billing platform, cutting costs 30%."}}
	service := newTestService(store, client, allowAllQuota{})

	improved, err := service.ImproveResumeSection(context.Background(), userID, "experience", "did billing stuff")
	require.NoError(t, err)
	assert.Equal(t, "Led migration of billing platform, cutting costs 30%.", improved)
	assert.Contains(t, client.prompts[0], "did billing stuff")
	assert.Equal(t, []artifacts.Type{artifacts.TypeResumeSection}, store.events)
}

func TestRecordArtifactFailureIsSwallowed(t *testing.T) {
	store := newFakeGenStore()
	store.recordErr = errors.New("events table unavailable")
	userID := seedUser(store, "Data Science", nil)
	client := &fakeClient{responses: []string{validQuizJSON(t)}}
	service := newTestService(store, client, allowAllQuota{})

	quiz, err := service.GenerateQuiz(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, schemas.QuizQuestionCount)
}
