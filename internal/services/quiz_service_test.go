package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astromirror/quiz-service/internal/cache"
	"github.com/astromirror/quiz-service/internal/events"
	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/quizdata"
	"github.com/astromirror/quiz-service/internal/repositories/memory"
	"github.com/astromirror/quiz-service/internal/validator"
)

const testQuizPath = "../quizdata/testdata/cosmic-archetype-quiz.json"

type serviceFixture struct {
	service   QuizService
	store     *memory.Store
	publisher *events.MockEventPublisher
}

func newServiceFixture(t *testing.T, opts ...memory.Option) *serviceFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()

	loader := quizdata.NewLoader(testQuizPath, v, logger)
	_, err := loader.Load()
	require.NoError(t, err)

	store := memory.NewStore(opts...)
	publisher := events.NewMockEventPublisher(logger)

	return &serviceFixture{
		service:   NewQuizService(store, loader, cache.NoopCache{}, publisher, logger, v),
		store:     store,
		publisher: publisher,
	}
}

// fieryAnswers drives the session to the solar_cardinal_fire archetype.
var fieryAnswers = []struct{ questionID, answerID string }{
	{"q1", "q1a"}, {"q2", "q2a"}, {"q3", "q3a"}, {"q4", "q4a"},
	{"q5", "q5a"}, {"q6", "q6c"}, {"q7", "q7a"},
}

// wateryAnswers drives the session to the lunar_fixed_water archetype.
var wateryAnswers = []struct{ questionID, answerID string }{
	{"q1", "q1b"}, {"q2", "q2b"}, {"q3", "q3b"}, {"q4", "q4c"},
	{"q5", "q5b"}, {"q6", "q6b"}, {"q7", "q7b"},
}

func (f *serviceFixture) answerAll(t *testing.T, sessionID string, answers []struct{ questionID, answerID string }) *SubmitAnswerResponse {
	t.Helper()

	var resp *SubmitAnswerResponse
	var err error
	for _, a := range answers {
		resp, err = f.service.SubmitAnswer(context.Background(), &SubmitAnswerRequest{
			SessionID:  sessionID,
			QuestionID: a.questionID,
			AnswerID:   a.answerID,
		})
		require.NoError(t, err)
	}
	return resp
}

func TestQuizService_Start(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.service.Start(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "q1", resp.Question.ID)
	assert.Equal(t, 7, resp.TotalQuestions)
	assert.Equal(t, 0, resp.Progress.Current)
	assert.Equal(t, "cosmic-archetype", resp.QuizMeta.ID)

	// Scoring never leaves the server.
	for _, answer := range resp.Question.Answers {
		assert.Nil(t, answer.Scoring)
	}

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuizStarted, published[0].Type)
}

func TestQuizService_Start_RecordsCallerID(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	resp, err := f.service.Start(ctx, &StartQuizRequest{CallerID: "user-42"})
	require.NoError(t, err)

	session, err := f.store.Session().Get(ctx, resp.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session.CallerID)
	assert.Equal(t, "user-42", *session.CallerID)
}

func TestQuizService_SubmitAnswer_AdvancesQuestions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	resp, err := f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{
		SessionID:  start.SessionID,
		QuestionID: "q1",
		AnswerID:   "q1a",
	})
	require.NoError(t, err)

	assert.False(t, resp.Completed)
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, "q2", resp.NextQuestion.ID)
	assert.Equal(t, 1, resp.Progress.Current)
	assert.Equal(t, 14, resp.Progress.Percentage)
	for _, answer := range resp.NextQuestion.Answers {
		assert.Nil(t, answer.Scoring)
	}
}

func TestQuizService_SubmitAnswer_Validation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *SubmitAnswerRequest
		wantErr error
	}{
		{
			name:    "unknown session",
			req:     &SubmitAnswerRequest{SessionID: "quiz_missing_00000000", QuestionID: "q1", AnswerID: "q1a"},
			wantErr: ErrSessionNotFound,
		},
		{
			name:    "unknown question",
			req:     &SubmitAnswerRequest{SessionID: start.SessionID, QuestionID: "q99", AnswerID: "q1a"},
			wantErr: ErrInvalidQuestion,
		},
		{
			name:    "answer from another question",
			req:     &SubmitAnswerRequest{SessionID: start.SessionID, QuestionID: "q1", AnswerID: "q2a"},
			wantErr: ErrInvalidAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SubmitAnswer(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{SessionID: start.SessionID})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestQuizService_SubmitAnswer_Duplicate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	_, err = f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{
		SessionID: start.SessionID, QuestionID: "q1", AnswerID: "q1a",
	})
	require.NoError(t, err)

	_, err = f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{
		SessionID: start.SessionID, QuestionID: "q1", AnswerID: "q1b",
	})
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.True(t, IsConflict(err))
}

func TestQuizService_CompleteQuiz(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	final := f.answerAll(t, start.SessionID, fieryAnswers)

	assert.True(t, final.Completed)
	assert.Nil(t, final.NextQuestion)
	assert.Equal(t, 100, final.Progress.Percentage)

	require.NotNil(t, final.Result)
	assert.Equal(t, "solar_cardinal_fire", final.Result.Profile.ID())
	assert.False(t, final.Result.IsFallback)
	assert.Equal(t, 7, final.Result.Scores.Fire)
	assert.Equal(t, 6, final.Result.Scores.Cardinal)
	assert.Equal(t, 4, final.Result.Scores.Solar)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventQuizCompleted, published[1].Type)
	data, ok := published[1].Data.(events.QuizCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, start.SessionID, data.SessionID)
	assert.Equal(t, "solar_cardinal_fire", data.ProfileID)
}

func TestQuizService_Result(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)
	f.answerAll(t, start.SessionID, wateryAnswers)

	result, err := f.service.Result(ctx, start.SessionID)
	require.NoError(t, err)

	assert.Equal(t, start.SessionID, result.SessionID)
	assert.Equal(t, "lunar_fixed_water", result.Profile.ID())
	assert.False(t, result.IsFallback)
	assert.Equal(t, 7, result.Scores.Water)
	assert.NotEmpty(t, result.Disclaimer.Short)
	assert.False(t, result.CompletedAt.IsZero())
}

func TestQuizService_Result_NotCompleted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	_, err = f.service.Result(ctx, start.SessionID)
	assert.ErrorIs(t, err, ErrQuizNotCompleted)
	assert.True(t, IsValidation(err))
}

func TestQuizService_Result_UnknownSession(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Result(context.Background(), "quiz_missing_00000000")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFound(err))
}

func TestQuizService_Result_RecomputesWhenResultRowMissing(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// A fully answered, stamped session whose result row was never
	// persisted, as after a crash between Complete and Save.
	completedAt := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	profileID := "solar_cardinal_fire"
	session := &models.QuizSession{
		ID:          "quiz_crash_1234567",
		StartedAt:   completedAt.Add(-5 * time.Minute),
		CompletedAt: &completedAt,
		ProfileID:   &profileID,
	}
	for _, a := range fieryAnswers {
		session.Answers = append(session.Answers, models.RecordedAnswer{
			QuestionID: a.questionID,
			AnswerID:   a.answerID,
		})
	}
	require.NoError(t, f.store.Session().Create(ctx, session))

	result, err := f.service.Result(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "solar_cardinal_fire", result.Profile.ID())
	assert.True(t, result.CompletedAt.Equal(completedAt))

	// The recomputed result is persisted for the next read.
	stored, err := f.store.Result().Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "solar_cardinal_fire", stored.ProfileID)
}

func TestQuizService_Progress(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	_, err = f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{
		SessionID: start.SessionID, QuestionID: "q1", AnswerID: "q1a",
	})
	require.NoError(t, err)
	_, err = f.service.SubmitAnswer(ctx, &SubmitAnswerRequest{
		SessionID: start.SessionID, QuestionID: "q2", AnswerID: "q2b",
	})
	require.NoError(t, err)

	progress, err := f.service.Progress(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Current)
	assert.Equal(t, 7, progress.Total)
	assert.Equal(t, 29, progress.Percentage)
}

func TestQuizService_Stats(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Start(ctx, nil)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, nil)
	require.NoError(t, err)

	f.answerAll(t, first.SessionID, fieryAnswers)

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Results)
}

func TestQuizService_CleanupExpired(t *testing.T) {
	current := time.Now()
	f := newServiceFixture(t,
		memory.WithTTL(time.Hour),
		memory.WithClock(func() time.Time { return current }),
	)
	ctx := context.Background()

	start, err := f.service.Start(ctx, nil)
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	removed, err := f.service.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = f.service.Progress(ctx, start.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
