package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirewell/codeassess/internal/middleware"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/response"
	"github.com/hirewell/codeassess/internal/service"
	"github.com/hirewell/codeassess/internal/validator"
)

// ExamHandler handles the exam attempt lifecycle endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Summary godoc
// GET /api/v1/exam/summary
// Returns the paper overview for the pre-exam dashboard.
func (h *ExamHandler) Summary(c *gin.Context) {
	summary, err := h.examService.Summary(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Start godoc
// POST /api/v1/exam/start
// Starts the candidate's attempt (idempotent if already started).
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, err := h.examService.Start(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// Status godoc
// GET /api/v1/exam/status
// Returns the server-authoritative attempt state. Clients call this on every
// page entry to rebase their countdown.
func (h *ExamHandler) Status(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, err := h.examService.Status(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// SaveAnswer godoc
// POST /api/v1/exam/save-answer
// Autosaves one problem's answer while the attempt is active.
func (h *ExamHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	err := h.examService.SaveAnswer(c.Request.Context(), claims.UserID, req.ProblemID, req.Code, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAttempt):
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotStarted)
		case errors.Is(err, service.ErrTimeExpired):
			response.Fail(c, http.StatusBadRequest, response.ErrExamExpired)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Submit godoc
// POST /api/v1/exam/submit
// Finalizes the attempt with the full answer set, manually or automatically
// (auto_submit=true when the client countdown expired). Duplicate submits
// are acknowledged, not rejected.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.examService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNoAttempt) {
			response.Fail(c, http.StatusBadRequest, response.ErrExamNotStarted)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, result)
}
