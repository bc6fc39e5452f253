package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/artifacts"
	"github.com/jonathan/career-coach/internal/batch"
	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/generate"
	"github.com/jonathan/career-coach/internal/server/middleware"
	"github.com/jonathan/career-coach/internal/server/ratelimit"
)

// ContentStore is the read surface the HTTP handlers use directly.
type ContentStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	ListCoverLetters(ctx context.Context, userID uuid.UUID) ([]db.CoverLetter, error)
	GetCoverLetter(ctx context.Context, userID, letterID uuid.UUID) (*db.CoverLetter, error)
	DeleteCoverLetter(ctx context.Context, userID, letterID uuid.UUID) error
	ListAssessments(ctx context.Context, userID uuid.UUID) ([]db.Assessment, error)
	GetResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error)
}

// GenerationService is the AI-backed operation surface.
type GenerationService interface {
	GenerateCoverLetter(ctx context.Context, userID uuid.UUID, req generate.CoverLetterRequest) (*db.CoverLetter, error)
	GenerateQuiz(ctx context.Context, userID uuid.UUID) (*artifacts.Quiz, error)
	SaveQuizResult(ctx context.Context, userID uuid.UUID, questions []db.AssessmentQuestion, score float64) (*db.Assessment, error)
	ImproveResumeSection(ctx context.Context, userID uuid.UUID, sectionType, current string) (string, error)
	SaveResume(ctx context.Context, userID uuid.UUID, content string) (*db.Resume, error)
	AnalyzeResume(ctx context.Context, userID uuid.UUID) (*artifacts.ResumeAnalysis, error)
}

// InsightProvider serves cached industry reports.
type InsightProvider interface {
	GetOrRefresh(ctx context.Context, industry string) (*db.IndustryInsight, error)
}

// ManualRefresher triggers a synchronous single-industry refresh.
type ManualRefresher interface {
	RefreshOne(ctx context.Context, industry string) (*batch.RunReport, error)
}

// Server is the HTTP server for the career coach API.
type Server struct {
	httpServer  *http.Server
	store       ContentStore
	generator   GenerationService
	insights    InsightProvider
	batch       ManualRefresher
	userService *UserService
	authHandler *AuthHandler
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	validator   *validator.Validate
	logger      log.Logger
}

// Deps carries the wired collaborators a Server serves.
type Deps struct {
	Store     ContentStore
	Auth      AuthStore
	Generator GenerationService
	Insights  InsightProvider
	Batch     ManualRefresher
}

// New creates a server. JWT and password settings come from the
// environment; everything else arrives wired through deps.
func New(port string, deps Deps, logger log.Logger) (*Server, error) {
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		store:       deps.Store,
		generator:   deps.Generator,
		insights:    deps.Insights,
		batch:       deps.Batch,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		validator:   validator.New(),
		logger:      logger,
	}
	s.userService = NewUserService(deps.Auth, passwordConfig)
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.withRateLimit(s.withLogging(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can retry with backoff
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	authed := http.NewServeMux()
	authed.HandleFunc("PUT /auth/password", s.handleUpdatePassword)
	authed.HandleFunc("GET /users/me", s.handleGetMe)
	authed.HandleFunc("PUT /users/me", s.handleUpdateProfile)

	authed.HandleFunc("POST /cover-letters", s.handleCreateCoverLetter)
	authed.HandleFunc("GET /cover-letters", s.handleListCoverLetters)
	authed.HandleFunc("GET /cover-letters/{id}", s.handleGetCoverLetter)
	authed.HandleFunc("DELETE /cover-letters/{id}", s.handleDeleteCoverLetter)

	authed.HandleFunc("POST /quizzes", s.handleGenerateQuiz)
	authed.HandleFunc("POST /assessments", s.handleSaveAssessment)
	authed.HandleFunc("GET /assessments", s.handleListAssessments)

	authed.HandleFunc("PUT /resume", s.handleSaveResume)
	authed.HandleFunc("GET /resume", s.handleGetResume)
	authed.HandleFunc("POST /resume/analyze", s.handleAnalyzeResume)
	authed.HandleFunc("POST /resume/improve", s.handleImproveSection)

	authed.HandleFunc("GET /insights", s.handleGetInsight)
	authed.HandleFunc("POST /insights/refresh", s.handleRefreshInsight)

	mux.Handle("/", middleware.Auth(s.jwtService.AsTokenValidator())(authed))
	return mux
}

// Start begins listening for requests. It blocks until the listener
// fails or the server is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIP(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())+1))
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's IP from RemoteAddr. Forwarded-for
// headers are ignored; this service is not expected to sit behind a
// trusted proxy yet.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
