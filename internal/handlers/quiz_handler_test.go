package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astromirror/quiz-service/internal/cache"
	"github.com/astromirror/quiz-service/internal/events"
	"github.com/astromirror/quiz-service/internal/quizdata"
	"github.com/astromirror/quiz-service/internal/repositories/memory"
	"github.com/astromirror/quiz-service/internal/services"
	"github.com/astromirror/quiz-service/internal/utils"
	"github.com/astromirror/quiz-service/internal/validator"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()

	loader := quizdata.NewLoader("../quizdata/testdata/cosmic-archetype-quiz.json", v, slogger)
	_, err := loader.Load()
	require.NoError(t, err)

	store := memory.NewStore()
	publisher := events.NewMockEventPublisher(slogger)
	quizService := services.NewQuizService(store, loader, cache.NoopCache{}, publisher, slogger, v)
	exportService := services.NewExportService(store, slogger)

	router := gin.New()
	hm := NewHandlerManager(quizService, exportService, v, utils.NewSlogLogger(slogger))
	hm.SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequestWithContext(context.Background(), method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStartQuizEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/quiz/start", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp services.StartQuizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "q1", resp.Question.ID)
	assert.Equal(t, 7, resp.TotalQuestions)

	// Answer scoring must not appear anywhere in the payload.
	assert.NotContains(t, w.Body.String(), "scoring")
}

func TestSubmitAnswerEndpoint(t *testing.T) {
	router := newTestRouter(t)

	start := doRequest(router, http.MethodPost, "/api/v1/quiz/start", nil)
	require.Equal(t, http.StatusCreated, start.Code)
	var started services.StartQuizResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(router, http.MethodPost, "/api/v1/quiz/answer", services.SubmitAnswerRequest{
		SessionID:  started.SessionID,
		QuestionID: "q1",
		AnswerID:   "q1a",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp services.SubmitAnswerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Completed)
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, "q2", resp.NextQuestion.ID)
}

func TestSubmitAnswerEndpoint_ErrorMapping(t *testing.T) {
	router := newTestRouter(t)

	start := doRequest(router, http.MethodPost, "/api/v1/quiz/start", nil)
	require.Equal(t, http.StatusCreated, start.Code)
	var started services.StartQuizResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	tests := []struct {
		name       string
		req        services.SubmitAnswerRequest
		wantStatus int
		wantInBody []string
	}{
		{
			name:       "unknown session",
			req:        services.SubmitAnswerRequest{SessionID: "quiz_missing_00000000", QuestionID: "q1", AnswerID: "q1a"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown question",
			req:        services.SubmitAnswerRequest{SessionID: started.SessionID, QuestionID: "q99", AnswerID: "q1a"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong answer id",
			req:        services.SubmitAnswerRequest{SessionID: started.SessionID, QuestionID: "q1", AnswerID: "zz"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			req:        services.SubmitAnswerRequest{SessionID: started.SessionID},
			wantStatus: http.StatusBadRequest,
			wantInBody: []string{"question_id", "answer_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/v1/quiz/answer", tt.req)
			assert.Equal(t, tt.wantStatus, w.Code)
			for _, fragment := range tt.wantInBody {
				assert.Contains(t, w.Body.String(), fragment)
			}
		})
	}

	t.Run("duplicate answer conflicts", func(t *testing.T) {
		first := doRequest(router, http.MethodPost, "/api/v1/quiz/answer", services.SubmitAnswerRequest{
			SessionID: started.SessionID, QuestionID: "q1", AnswerID: "q1a",
		})
		require.Equal(t, http.StatusOK, first.Code)

		again := doRequest(router, http.MethodPost, "/api/v1/quiz/answer", services.SubmitAnswerRequest{
			SessionID: started.SessionID, QuestionID: "q1", AnswerID: "q1b",
		})
		assert.Equal(t, http.StatusConflict, again.Code)
	})
}

func TestFullQuizFlow(t *testing.T) {
	router := newTestRouter(t)

	start := doRequest(router, http.MethodPost, "/api/v1/quiz/start", nil)
	require.Equal(t, http.StatusCreated, start.Code)
	var started services.StartQuizResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	answers := []struct{ questionID, answerID string }{
		{"q1", "q1a"}, {"q2", "q2a"}, {"q3", "q3a"}, {"q4", "q4a"},
		{"q5", "q5a"}, {"q6", "q6c"}, {"q7", "q7a"},
	}

	var final services.SubmitAnswerResponse
	for _, a := range answers {
		w := doRequest(router, http.MethodPost, "/api/v1/quiz/answer", services.SubmitAnswerRequest{
			SessionID:  started.SessionID,
			QuestionID: a.questionID,
			AnswerID:   a.answerID,
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	}

	assert.True(t, final.Completed)
	require.NotNil(t, final.Result)
	assert.Equal(t, "solar_cardinal_fire", final.Result.Profile.ID())

	result := doRequest(router, http.MethodGet, "/api/v1/quiz/result/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, result.Code)
	var res services.QuizResultResponse
	require.NoError(t, json.Unmarshal(result.Body.Bytes(), &res))
	assert.Equal(t, "solar_cardinal_fire", res.Profile.ID())
	assert.Equal(t, 7, res.Scores.Fire)

	progress := doRequest(router, http.MethodGet, "/api/v1/quiz/progress/"+started.SessionID, nil)
	require.Equal(t, http.StatusOK, progress.Code)
	assert.Contains(t, progress.Body.String(), `"percentage":100`)

	stats := doRequest(router, http.MethodGet, "/api/v1/quiz/stats", nil)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.Contains(t, stats.Body.String(), `"completed":1`)
}

func TestResultEndpoint_NotCompleted(t *testing.T) {
	router := newTestRouter(t)

	start := doRequest(router, http.MethodPost, "/api/v1/quiz/start", nil)
	require.Equal(t, http.StatusCreated, start.Code)
	var started services.StartQuizResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	w := doRequest(router, http.MethodGet, "/api/v1/quiz/result/"+started.SessionID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/quiz/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "quiz_results.csv")
	assert.Contains(t, w.Body.String(), "Session ID")

	w = doRequest(router, http.MethodGet, "/api/v1/quiz/export?format=txt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/quiz/export?format=csv&is_fallback=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
