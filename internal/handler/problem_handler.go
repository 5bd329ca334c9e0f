package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/response"
	"github.com/hirewell/codeassess/internal/service"
)

// ProblemHandler handles candidate-facing problem endpoints.
type ProblemHandler struct {
	problemService *service.ProblemService
}

// NewProblemHandler creates a new ProblemHandler.
func NewProblemHandler(problemService *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

// ListPython godoc
// GET /api/v1/problems/python
func (h *ProblemHandler) ListPython(c *gin.Context) {
	h.list(c, model.LanguagePython)
}

// ListSQL godoc
// GET /api/v1/problems/sql
func (h *ProblemHandler) ListSQL(c *gin.Context) {
	h.list(c, model.LanguageSQL)
}

func (h *ProblemHandler) list(c *gin.Context, language model.Language) {
	problems, err := h.problemService.List(c.Request.Context(), language)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"problems": problems})
}

// Get godoc
// GET /api/v1/problems/:id
// Returns the full problem, including statement and starter code.
func (h *ProblemHandler) Get(c *gin.Context) {
	problem, err := h.problemService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProblemNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, problem)
}
