package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hirewell/codeassess/internal/config"
	"github.com/hirewell/codeassess/internal/handler"
	"github.com/hirewell/codeassess/internal/middleware"
	"github.com/hirewell/codeassess/internal/response"
	"github.com/hirewell/codeassess/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Problem *handler.ProblemHandler
	HR      *handler.HRHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP). Login sees
	// a burst when an assessment window opens for a batch of candidates.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/hr/login", handlers.Auth.HRLogin)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Candidate Group (JWT + Single Session) ─────────────────────
	candidateAPI := router.Group("/api/v1")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckCandidateSession(authService),
	)
	{
		candidateAPI.GET("/exam/summary", handlers.Exam.Summary)
		candidateAPI.POST("/exam/start", handlers.Exam.Start)
		candidateAPI.GET("/exam/status", handlers.Exam.Status)
		candidateAPI.POST("/exam/save-answer", handlers.Exam.SaveAnswer)
		candidateAPI.POST("/exam/submit", handlers.Exam.Submit)

		candidateAPI.GET("/problems/python", handlers.Problem.ListPython)
		candidateAPI.GET("/problems/sql", handlers.Problem.ListSQL)
		candidateAPI.GET("/problems/:id", handlers.Problem.Get)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/exam/stream", handlers.WS.CountdownStream)
	}

	// ─── 4. HR Group (JWT) ─────────────────────────────────────────────
	hrAPI := router.Group("/api/v1/hr")
	hrAPI.Use(middleware.RequireHRJWT(authService))
	{
		hrAPI.GET("/problems", handlers.HR.ListProblems)
		hrAPI.POST("/problems", handlers.HR.CreateProblem)
		hrAPI.DELETE("/problems/:id", handlers.HR.DeleteProblem)
		hrAPI.GET("/results", handlers.HR.Results)
		hrAPI.GET("/results/:candidate_id/answers", handlers.HR.CandidateAnswers)
	}

	return router
}
