package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/generate"
	"github.com/jonathan/career-coach/internal/server/middleware"
)

// requireUserID pulls the authenticated user ID set by the auth
// middleware. A missing ID means the route was wired without the
// middleware, so treat it as unauthorized rather than panic.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, firstValidationError(err))
		return false
	}
	return true
}

// --- Profile ---

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "user not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	s.authHandler.UpdatePassword(w, r, userID)
}

// --- Cover letters ---

func (s *Server) handleCreateCoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req generate.CoverLetterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	letter, err := s.generator.GenerateCoverLetter(r.Context(), userID, req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, letter)
}

func (s *Server) handleListCoverLetters(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	letters, err := s.store.ListCoverLetters(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, letters)
}

func (s *Server) handleGetCoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	letterID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid cover letter ID")
		return
	}

	letter, err := s.store.GetCoverLetter(r.Context(), userID, letterID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if letter == nil {
		s.errorResponse(w, http.StatusNotFound, "cover letter not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, letter)
}

func (s *Server) handleDeleteCoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	letterID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid cover letter ID")
		return
	}

	if err := s.store.DeleteCoverLetter(r.Context(), userID, letterID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Quizzes and assessments ---

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	quiz, err := s.generator.GenerateQuiz(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, quiz)
}

func (s *Server) handleSaveAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req SaveAssessmentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	questions := make([]db.AssessmentQuestion, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = db.AssessmentQuestion{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    q.UserAnswer,
			IsCorrect:     q.IsCorrect,
			Explanation:   q.Explanation,
		}
	}

	assessment, err := s.generator.SaveQuizResult(r.Context(), userID, questions, req.Score)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, assessment)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	assessments, err := s.store.ListAssessments(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, assessments)
}

// --- Resume ---

func (s *Server) handleSaveResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req SaveResumeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	resume, err := s.generator.SaveResume(r.Context(), userID, req.Content)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	resume, err := s.store.GetResume(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, "resume not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleAnalyzeResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	analysis, err := s.generator.AnalyzeResume(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

func (s *Server) handleImproveSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req ImproveSectionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	improved, err := s.generator.ImproveResumeSection(r.Context(), userID, req.SectionType, req.Current)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"content": improved})
}

// --- Industry insights ---

// handleGetInsight serves the market report for the caller's industry.
// Stale or missing reports are handled by the insight manager; the
// handler never blocks on a best-effort background refresh.
func (s *Server) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	industry, ok := s.userIndustry(w, r, userID)
	if !ok {
		return
	}

	record, err := s.insights.GetOrRefresh(r.Context(), industry)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

// handleRefreshInsight forces a synchronous regeneration of the
// caller's industry report.
func (s *Server) handleRefreshInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	industry, ok := s.userIndustry(w, r, userID)
	if !ok {
		return
	}

	report, err := s.batch.RefreshOne(r.Context(), industry)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if report.Failed > 0 {
		s.errorResponse(w, http.StatusServiceUnavailable, report.Failures[0].ErrorMessage)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) userIndustry(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (string, bool) {
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return "", false
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "user not found")
		return "", false
	}
	if user.Industry == "" {
		s.errorResponse(w, http.StatusBadRequest, "set an industry on your profile first")
		return "", false
	}
	return user.Industry, true
}
