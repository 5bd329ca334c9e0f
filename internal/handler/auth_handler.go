package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hirewell/codeassess/internal/middleware"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/repository"
	"github.com/hirewell/codeassess/internal/response"
	"github.com/hirewell/codeassess/internal/service"
	"github.com/hirewell/codeassess/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	candidateRepo *repository.CandidateRepository
	hrRepo        *repository.HRUserRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	candidateRepo *repository.CandidateRepository,
	hrRepo *repository.HRUserRepository,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		candidateRepo: candidateRepo,
		hrRepo:        hrRepo,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Candidate login by name + email. Returns the session token (session_id)
// the client holds for the whole exam attempt.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cand, err := h.candidateRepo.UpsertByEmail(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateCandidateToken(c.Request.Context(), cand)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": token,
		"user_id":    cand.ID,
		"name":       cand.Name,
		"email":      cand.Email,
	})
}

// HRLogin godoc
// POST /api/v1/auth/hr/login
// HR reviewer login with email + password.
func (h *AuthHandler) HRLogin(c *gin.Context) {
	var req model.HRLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.hrRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateHRToken(user)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the candidate's login session. The client clears its local exam state
// (answers and timer) when this succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the identity bound to the presented token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user_id": claims.UserID,
		"name":    claims.Name,
		"email":   claims.Email,
		"role":    claims.TokenType,
	})
}
