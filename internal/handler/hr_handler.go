package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/response"
	"github.com/hirewell/codeassess/internal/service"
	"github.com/hirewell/codeassess/internal/validator"
)

// HRHandler handles HR-facing content management and results review.
type HRHandler struct {
	problemService *service.ProblemService
	examService    *service.ExamService
}

// NewHRHandler creates a new HRHandler.
func NewHRHandler(problemService *service.ProblemService, examService *service.ExamService) *HRHandler {
	return &HRHandler{
		problemService: problemService,
		examService:    examService,
	}
}

// ListProblems godoc
// GET /api/v1/hr/problems
func (h *HRHandler) ListProblems(c *gin.Context) {
	problems, err := h.problemService.List(c.Request.Context(), "")
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"problems": problems})
}

// CreateProblem godoc
// POST /api/v1/hr/problems
// Malformed problem content is rejected here by binding validation, before
// it can reach the candidate exam flow.
func (h *HRHandler) CreateProblem(c *gin.Context) {
	var req model.CreateProblemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	problem, err := h.problemService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, problem)
}

// DeleteProblem godoc
// DELETE /api/v1/hr/problems/:id
func (h *HRHandler) DeleteProblem(c *gin.Context) {
	err := h.problemService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProblemNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// Results godoc
// GET /api/v1/hr/results
// Lists all exam attempts with candidate info and answer counts.
func (h *HRHandler) Results(c *gin.Context) {
	results, err := h.examService.Results(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.AttemptResult{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// CandidateAnswers godoc
// GET /api/v1/hr/results/:candidate_id/answers
// Returns the persisted answer set for one candidate.
func (h *HRHandler) CandidateAnswers(c *gin.Context) {
	candidateID, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.examService.Answers(c.Request.Context(), candidateID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if answers == nil {
		answers = []model.SubmittedAnswer{}
	}
	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}
