package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/handler"
	"github.com/stemsi/exproctor/internal/middleware"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/relay"
	"github.com/stemsi/exproctor/internal/response"
	"github.com/stemsi/exproctor/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Result  *handler.ResultHandler
	Proctor *handler.ProctorWSHandler
	Monitor *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	hub *relay.Hub,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades pass through.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		connections, rooms := hub.Stats()
		response.Success(c, http.StatusOK, gin.H{
			"status":      "ok",
			"connections": connections,
			"rooms":       rooms,
		})
	})

	requireJWT := middleware.RequireJWT(authService)
	teacherOnly := middleware.RequireRole(model.RoleTeacher)
	studentOnly := middleware.RequireRole(model.RoleStudent)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/me", requireJWT, handlers.Auth.Me)
	}

	// ─── 2. Exam Group ─────────────────────────────────────────────────
	exams := router.Group("/api/v1/exams")
	exams.Use(requireJWT)
	{
		exams.POST("", teacherOnly, handlers.Exam.CreateExam)
		exams.GET("", teacherOnly, handlers.Exam.ListMyExams)
		exams.GET("/questions", teacherOnly, handlers.Exam.QuestionBank)
		exams.GET("/student/all", studentOnly, handlers.Exam.ListAvailable)
		exams.GET("/start/:exam_id", studentOnly, middleware.NoStore(), handlers.Exam.StartExam)
	}

	// ─── 3. Result Group ───────────────────────────────────────────────
	results := router.Group("/api/v1/results")
	results.Use(requireJWT, middleware.NoStore())
	{
		results.POST("/submit", studentOnly, handlers.Result.Submit)
		results.POST("/proctoring-log", studentOnly, handlers.Result.ProctoringLog)
		results.GET("/me/:exam_id", studentOnly, handlers.Result.MyResult)
		results.GET("/exam/:exam_id", teacherOnly, handlers.Result.ResultsForExam)
		results.GET("/exam/:exam_id/monitor", teacherOnly, handlers.Monitor.MonitorExamSSE)
	}

	// ─── 4. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/proctor", handlers.Proctor.Proctor)
	}

	return router
}
