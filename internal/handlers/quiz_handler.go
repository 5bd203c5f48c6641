package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astromirror/quiz-service/internal/repositories"
	"github.com/astromirror/quiz-service/internal/services"
	"github.com/astromirror/quiz-service/internal/utils"
	"github.com/astromirror/quiz-service/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService   services.QuizService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		quizService:   quizService,
		exportService: exportService,
		validator:     validator,
	}
}

// StartQuiz creates a new quiz session
// @Summary Start quiz
// @Description Creates a new quiz session and returns the first question
// @Tags quiz
// @Accept json
// @Produce json
// @Param session body services.StartQuizRequest false "Optional session context"
// @Success 201 {object} services.StartQuizResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /quiz/start [post]
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	h.LogRequest(c, "Starting quiz session")

	// Body is optional; an empty or absent body starts an anonymous session.
	var req services.StartQuizRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	resp, err := h.quizService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SubmitAnswer records an answer for a session
// @Summary Submit answer
// @Description Records an answer and returns the next question or the final result
// @Tags quiz
// @Accept json
// @Produce json
// @Param answer body services.SubmitAnswerRequest true "Answer submission"
// @Success 200 {object} services.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /quiz/answer [post]
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Submitting answer",
		"session_id", req.SessionID,
		"question_id", req.QuestionID)

	resp, err := h.quizService.SubmitAnswer(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetResult returns the result of a completed session
// @Summary Get quiz result
// @Description Returns the matched profile and scores for a completed session
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.QuizResultResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /quiz/result/{session_id} [get]
func (h *QuizHandler) GetResult(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Session ID is required",
		})
		return
	}

	resp, err := h.quizService.Result(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProgress reports the progress of a session
// @Summary Get quiz progress
// @Description Returns answered/total with a rounded percentage
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} engine.Progress
// @Failure 404 {object} ErrorResponse
// @Router /quiz/progress/{session_id} [get]
func (h *QuizHandler) GetProgress(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Session ID is required",
		})
		return
	}

	progress, err := h.quizService.Progress(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetStats returns aggregate session statistics
// @Summary Get session statistics
// @Description Returns counts of active sessions, completed sessions and stored results
// @Tags quiz
// @Produce json
// @Success 200 {object} models.SessionStats
// @Failure 503 {object} ErrorResponse
// @Router /quiz/stats [get]
func (h *QuizHandler) GetStats(c *gin.Context) {
	stats, err := h.quizService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportResults streams stored results as a CSV or Excel download
// @Summary Export quiz results
// @Description Exports stored results, filtered by kind and completion date
// @Tags quiz
// @Produce octet-stream
// @Param format query string false "csv or xlsx" default(csv)
// @Param is_fallback query bool false "Only fallback (or only archetype) results"
// @Param date_from query string false "RFC 3339 lower bound on completed_at"
// @Param date_to query string false "RFC 3339 upper bound on completed_at"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /quiz/export [get]
func (h *QuizHandler) ExportResults(c *gin.Context) {
	filters, err := parseResultFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid filter parameters",
			Details: err.Error(),
		})
		return
	}

	format := c.DefaultQuery("format", "csv")
	h.LogRequest(c, "Exporting quiz results", "format", format)

	switch format {
	case "csv":
		data, err := h.exportService.ExportResultsToCSV(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="quiz_results.csv"`)
		c.Data(http.StatusOK, "text/csv", data)

	case "xlsx":
		data, err := h.exportService.ExportResultsToExcel(c.Request.Context(), filters)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="quiz_results.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: format,
		})
	}
}

func parseResultFilters(c *gin.Context) (repositories.ResultFilters, error) {
	var filters repositories.ResultFilters

	if raw, ok := c.GetQuery("is_fallback"); ok {
		switch raw {
		case "true":
			v := true
			filters.IsFallback = &v
		case "false":
			v := false
			filters.IsFallback = &v
		default:
			return filters, fmt.Errorf("is_fallback must be true or false, got %q", raw)
		}
	}

	if raw, ok := c.GetQuery("date_from"); ok {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, fmt.Errorf("date_from: %w", err)
		}
		filters.DateFrom = &t
	}

	if raw, ok := c.GetQuery("date_to"); ok {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, fmt.Errorf("date_to: %w", err)
		}
		filters.DateTo = &t
	}

	return filters, nil
}
