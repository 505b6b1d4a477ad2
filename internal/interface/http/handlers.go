// Package http implements the REST API for the progression engine.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/command"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/query"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/pkg/logger"
)

// validate checks request payloads before they reach the command layer.
var validate = validator.New()

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	info := map[string]interface{}{
		"name":    "Progression Engine API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":       "/health",
			"users":        "/api/v1/users",
			"enrollments":  "/api/v1/enrollments",
			"certificates": "/api/v1/certificates/{code}/verify",
		},
	}
	writeJSON(w, http.StatusOK, info)
}

// handleHealth serves the full health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// handleReady serves the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// handleLive serves the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT & ENROLLMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	UserID           string `json:"userId"`
	ExternalID       string `json:"externalId"`
	EnrolledCourseID string `json:"enrolledCourseId,omitempty"`
}

// handleRegister creates an account and auto-enrolls it in the first course.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterHandler.Handle(r.Context(), command.RegisterCommand{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		UserID:           result.UserID,
		ExternalID:       result.ExternalID,
		EnrolledCourseID: result.EnrolledCourseID,
	})
}

type enrollRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	CourseID string `json:"courseId" validate:"required,uuid"`
}

type enrollResponse struct {
	UserID        string    `json:"userId"`
	CourseID      string    `json:"courseId"`
	CurrentLesson int       `json:"currentLesson"`
	EnrolledAt    time.Time `json:"enrolledAt"`
}

// handleEnroll enrolls a user in a course, subject to the course watermark.
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.EnrollHandler.Handle(r.Context(), command.EnrollCommand{
		UserID:   req.UserID,
		CourseID: req.CourseID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, enrollResponse{
		UserID:        result.UserID,
		CourseID:      result.CourseID,
		CurrentLesson: result.CurrentLesson,
		EnrolledAt:    result.EnrolledAt,
	})
}

// handleGetProgressSummary serves the user's dashboard.
func (s *Server) handleGetProgressSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	summary, err := s.deps.GetProgressSummaryHandler.Handle(r.Context(), query.GetProgressSummaryQuery{
		UserID: userID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleGetCourseOutline serves the per-user course outline with lock states.
func (s *Server) handleGetCourseOutline(w http.ResponseWriter, r *http.Request) {
	outline, err := s.deps.GetCourseOutlineHandler.Handle(r.Context(), query.GetCourseOutlineQuery{
		UserID:   r.PathValue("id"),
		CourseID: r.PathValue("courseId"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION WRITE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type submitActivityRequest struct {
	UserID   string          `json:"userId" validate:"required,uuid"`
	Response json.RawMessage `json:"response" validate:"required"`
}

type submitActivityResponse struct {
	Completed          bool      `json:"completed"`
	Feedback           string    `json:"feedback,omitempty"`
	NextActivityNumber int       `json:"nextActivityNumber"`
	LessonCompleted    bool      `json:"lessonCompleted"`
	CourseCompleted    bool      `json:"courseCompleted"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// handleSubmitActivity records an activity submission and runs the
// completion cascade.
func (s *Server) handleSubmitActivity(w http.ResponseWriter, r *http.Request) {
	var req submitActivityRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitActivityHandler.Handle(r.Context(), command.SubmitActivityCommand{
		UserID:     req.UserID,
		ActivityID: r.PathValue("id"),
		Response:   req.Response,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitActivityResponse{
		Completed:          result.Completed,
		Feedback:           result.Feedback,
		NextActivityNumber: result.NextActivityNumber,
		LessonCompleted:    result.LessonCompleted,
		CourseCompleted:    result.CourseCompleted,
		SubmittedAt:        result.SubmittedAt,
	})
}

type saveVideoPositionRequest struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	Seconds int    `json:"seconds" validate:"min=0"`
}

// handleSaveVideoPosition persists the resume position for a video lesson.
func (s *Server) handleSaveVideoPosition(w http.ResponseWriter, r *http.Request) {
	var req saveVideoPositionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	err := s.deps.SaveVideoPositionHandler.Handle(r.Context(), command.SaveVideoPositionCommand{
		UserID:   req.UserID,
		LessonID: r.PathValue("id"),
		Seconds:  req.Seconds,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

type submitFinalExamRequest struct {
	UserID  string            `json:"userId" validate:"required,uuid"`
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

type submitFinalExamResponse struct {
	Score           int       `json:"score"`
	Passed          bool      `json:"passed"`
	GradingStatus   string    `json:"gradingStatus"`
	CourseCompleted bool      `json:"courseCompleted"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// handleSubmitFinalExam grades and records a final exam submission.
func (s *Server) handleSubmitFinalExam(w http.ResponseWriter, r *http.Request) {
	var req submitFinalExamRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitFinalExamHandler.Handle(r.Context(), command.SubmitFinalExamCommand{
		UserID:  req.UserID,
		ExamID:  r.PathValue("id"),
		Answers: req.Answers,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitFinalExamResponse{
		Score:           result.Score,
		Passed:          result.Passed,
		GradingStatus:   string(result.GradingStatus),
		CourseCompleted: result.CourseCompleted,
		SubmittedAt:     result.SubmittedAt,
	})
}

type submitFinalProjectRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	Description string `json:"description" validate:"max=10000"`
	RepoURL     string `json:"repoUrl" validate:"omitempty,url"`
}

type submitFinalProjectResponse struct {
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// handleSubmitFinalProject records a final project submission for review.
func (s *Server) handleSubmitFinalProject(w http.ResponseWriter, r *http.Request) {
	var req submitFinalProjectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitFinalProjectHandler.Handle(r.Context(), command.SubmitFinalProjectCommand{
		UserID:      req.UserID,
		ProjectID:   r.PathValue("id"),
		Description: req.Description,
		RepoURL:     req.RepoURL,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitFinalProjectResponse{
		Status:      string(result.Status),
		SubmittedAt: result.SubmittedAt,
	})
}

type reviewFinalProjectRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=approved needs_revision"`
}

type reviewFinalProjectResponse struct {
	Status          string    `json:"status"`
	CourseCompleted bool      `json:"courseCompleted"`
	ReviewedAt      time.Time `json:"reviewedAt"`
}

// handleReviewFinalProject records a reviewer's verdict on a submission.
func (s *Server) handleReviewFinalProject(w http.ResponseWriter, r *http.Request) {
	var req reviewFinalProjectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.ReviewFinalProjectHandler.Handle(r.Context(), command.ReviewFinalProjectCommand{
		UserID:    req.UserID,
		ProjectID: r.PathValue("id"),
		Status:    progress.ProjectStatus(req.Status),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewFinalProjectResponse{
		Status:          string(result.Status),
		CourseCompleted: result.CourseCompleted,
		ReviewedAt:      result.ReviewedAt,
	})
}

type completeCourseRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type completeCourseResponse struct {
	FirstCompletion  bool `json:"firstCompletion"`
	CoursesCompleted int  `json:"coursesCompleted"`
	UnlockedCourses  int  `json:"unlockedCourses"`
}

// handleCompleteCourse verifies requirements and completes the course.
func (s *Server) handleCompleteCourse(w http.ResponseWriter, r *http.Request) {
	var req completeCourseRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CompleteCourseHandler.Handle(r.Context(), command.CompleteCourseCommand{
		UserID:   req.UserID,
		CourseID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, completeCourseResponse{
		FirstCompletion:  result.FirstCompletion,
		CoursesCompleted: result.CoursesCompleted,
		UnlockedCourses:  result.UnlockedCourses,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PUBLIC VERIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleVerifyCertificate checks a certificate verification code. An
// unknown code returns a negative verification, not an error.
func (s *Server) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	verification, err := s.deps.VerifyCertificateHandler.Handle(r.Context(), query.VerifyCertificateQuery{
		Code: r.PathValue("code"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads, decodes and validates a JSON request body. It writes
// the error response itself and returns false when the request is bad.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeJSONError(w, http.StatusBadRequest, "validation_failed", verrs[0].Error())
		} else {
			writeJSONError(w, http.StatusBadRequest, "validation_failed", "Request validation failed")
		}
		return false
	}

	return true
}

// writeDomainError maps a domain error to an HTTP status and body.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "locked", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsInvalidSubmission(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_submission", err.Error())
	case shared.IsPreconditionFailed(err):
		writeJSONError(w, http.StatusPreconditionFailed, "precondition_failed", err.Error())
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrEmptyValue), errors.Is(err, shared.ErrInvalidEntity):
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case shared.IsRetryable(err):
		writeJSONError(w, http.StatusServiceUnavailable, "service_unavailable", "A backing service is unavailable, try again later")
	default:
		s.logger.Error("unhandled request error",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
