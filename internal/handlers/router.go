package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/astromirror/quiz-service/internal/services"
	"github.com/astromirror/quiz-service/internal/utils"
	"github.com/astromirror/quiz-service/internal/validator"
)

type HandlerManager struct {
	quizHandler *QuizHandler
}

func NewHandlerManager(
	quizService services.QuizService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler: NewQuizHandler(quizService, exportService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		quiz := v1.Group("/quiz")
		{
			quiz.POST("/start", hm.quizHandler.StartQuiz)
			quiz.POST("/answer", hm.quizHandler.SubmitAnswer)
			quiz.GET("/result/:session_id", hm.quizHandler.GetResult)
			quiz.GET("/progress/:session_id", hm.quizHandler.GetProgress)
			quiz.GET("/stats", hm.quizHandler.GetStats)
			quiz.GET("/export", hm.quizHandler.ExportResults)
		}
	}
}
