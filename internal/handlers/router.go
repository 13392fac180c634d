package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/auth"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	quizHandler    *QuizHandler
	reportHandler  *ReportHandler
	resolver       auth.IdentityResolver
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver auth.IdentityResolver,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), logger),
		reportHandler:  NewReportHandler(serviceManager.Report(), logger),
		resolver:       resolver,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	authors := auth.RequireRoles(models.RoleAdmin, models.RoleUploader)

	v1 := router.Group("/api/v1", auth.Middleware(hm.resolver))
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.POST("", authors, hm.quizHandler.CreateQuiz)
			quizzes.DELETE("", authors, hm.quizHandler.DeleteQuizzes)
			quizzes.GET("/:id", authors, hm.quizHandler.GetQuiz)
			quizzes.DELETE("/:id", authors, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", authors, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/questions", authors, hm.quizHandler.AddQuestion)
			quizzes.POST("/:id/questions/import", authors, hm.quizHandler.ImportQuestions)

			// Taker entry point
			quizzes.POST("/:id/attempts", auth.RequireRoles(models.RoleQuizTaker), hm.attemptHandler.StartOrResume)

			// Reports
			quizzes.GET("/:id/results", authors, hm.reportHandler.ListResults)
			quizzes.GET("/:id/results/export", authors, hm.reportHandler.ExportResults)
			quizzes.GET("/:id/analytics", authors, hm.reportHandler.QuizAnalytics)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.PUT("/:id/answers/:question_id", hm.attemptHandler.RecordAnswer)
			attempts.POST("/:id/finish", hm.attemptHandler.Finish)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}

		v1.GET("/reports/departments", authors, hm.reportHandler.DepartmentReport)
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}
