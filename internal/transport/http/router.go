package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/waste3d/learning-platform/internal/middleware"
	"github.com/waste3d/learning-platform/internal/platform/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Courses     *CourseHandler
	Lessons     *LessonHandler
	Quizzes     *QuizHandler
	Enrollments *EnrollmentHandler
	Health      *HealthHandler
}

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
}

func NewRouter(log *logger.Logger, cfg RouterConfig, h Handlers, resolver middleware.Resolver, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.Health.Health)

	authRequired := middleware.AuthMiddleware(resolver)
	optional := middleware.OptionalAuth(resolver)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/verify-email", h.Auth.VerifyEmail)
			auth.POST("/resend-verification", limiter.Limit("resend_verify", 3, 10*time.Minute), h.Auth.ResendVerification)
			auth.POST("/login", limiter.Limit("login", 5, 1*time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/forgot-password", limiter.Limit("forgot_pass", 1, 5*time.Minute), h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
			auth.GET("/google", h.Auth.GoogleStart)
			auth.GET("/google/callback", h.Auth.GoogleCallback)
		}

		users := api.Group("/users", authRequired)
		{
			users.GET("/me", h.Users.GetMe)
			users.PATCH("/me", h.Users.UpdateMe)
			users.POST("/fcm-token", h.Users.SaveFCMToken)
			users.GET("/:id", h.Users.GetByID)
			users.PATCH("/:id/make-teacher", h.Users.MakeTeacher)
			users.PATCH("/:id/disable", h.Users.Disable)
			users.PATCH("/:id/restore", h.Users.Restore)
		}

		courses := api.Group("/courses")
		{
			courses.GET("", h.Courses.List)
			courses.GET("/my", authRequired, h.Courses.ListMine)
			courses.GET("/:id", optional, h.Courses.GetOne)
			courses.POST("", authRequired, h.Courses.Create)
			courses.PUT("/:id", authRequired, h.Courses.Update)
			courses.POST("/:id/thumbnail", authRequired, h.Courses.UploadThumbnail)
			courses.PATCH("/:id/publish", authRequired, h.Courses.TogglePublish)
			courses.DELETE("/:id", authRequired, h.Courses.Delete)

			courses.GET("/:id/lessons", optional, h.Lessons.ListByCourse)
			courses.POST("/:id/lessons", authRequired, h.Lessons.Create)
			courses.GET("/:id/quizzes", authRequired, h.Quizzes.ListByCourse)
			courses.POST("/:id/quizzes", authRequired, h.Quizzes.Create)
			courses.POST("/:id/enroll", authRequired, h.Enrollments.Enroll)
		}

		lessons := api.Group("/lessons")
		{
			lessons.GET("/:id", optional, h.Lessons.GetOne)
			lessons.PUT("/:id", authRequired, h.Lessons.Update)
			lessons.PATCH("/:id/publish", authRequired, h.Lessons.TogglePublish)
			lessons.DELETE("/:id", authRequired, h.Lessons.Delete)
		}

		quizzes := api.Group("/quizzes", authRequired)
		{
			quizzes.GET("/:id", h.Quizzes.GetOne)
			quizzes.PUT("/:id", h.Quizzes.Update)
			quizzes.PATCH("/:id/publish", h.Quizzes.TogglePublish)
			quizzes.DELETE("/:id", h.Quizzes.Delete)
		}

		enrollments := api.Group("/enrollments", authRequired)
		{
			enrollments.GET("/me", h.Enrollments.ListMine)
			enrollments.POST("/:id/complete-lesson", h.Enrollments.CompleteLesson)
		}
	}

	return r
}
