package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/astromirror/quiz-service/internal/cache"
	"github.com/astromirror/quiz-service/internal/engine"
	"github.com/astromirror/quiz-service/internal/events"
	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/quizdata"
	"github.com/astromirror/quiz-service/internal/repositories"
	"github.com/astromirror/quiz-service/internal/validator"
)

const resultCacheTTL = time.Hour

// QuizService drives a quiz session from start to result.
type QuizService interface {
	Start(ctx context.Context, req *StartQuizRequest) (*StartQuizResponse, error)
	SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	Result(ctx context.Context, sessionID string) (*QuizResultResponse, error)
	Progress(ctx context.Context, sessionID string) (*engine.Progress, error)
	Stats(ctx context.Context) (*models.SessionStats, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// ===== REQUEST / RESPONSE TYPES =====

// StartQuizRequest is optional context for a new session. CallerID ties the
// session to an authenticated user when the frontend has one.
type StartQuizRequest struct {
	CallerID string `json:"caller_id"`
}

type StartQuizResponse struct {
	SessionID      string          `json:"session_id"`
	Question       models.Question `json:"question"`
	Progress       engine.Progress `json:"progress"`
	QuizMeta       models.QuizMeta `json:"quiz_meta"`
	TotalQuestions int             `json:"total_questions"`
}

type SubmitAnswerRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	QuestionID string `json:"question_id" validate:"required"`
	AnswerID   string `json:"answer_id" validate:"required"`
}

type SubmitAnswerResponse struct {
	SessionID    string              `json:"session_id"`
	Completed    bool                `json:"completed"`
	Progress     engine.Progress     `json:"progress"`
	NextQuestion *models.Question    `json:"next_question,omitempty"`
	Result       *QuizResultResponse `json:"result,omitempty"`
}

type QuizResultResponse struct {
	SessionID    string                `json:"session_id"`
	Profile      models.MatchedProfile `json:"profile"`
	Scores       models.ScoreVector    `json:"scores"`
	IsFallback   bool                  `json:"is_fallback"`
	CompletedAt  time.Time             `json:"completed_at"`
	DesignTokens models.DesignTokens   `json:"design_tokens"`
	Disclaimer   models.Disclaimer     `json:"disclaimer"`
}

type quizService struct {
	repo      repositories.Repository
	loader    *quizdata.Loader
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(
	repo repositories.Repository,
	loader *quizdata.Loader,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) QuizService {
	return &quizService{
		repo:      repo,
		loader:    loader,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// ===== CORE QUIZ OPERATIONS =====

func (s *quizService) Start(ctx context.Context, req *StartQuizRequest) (*StartQuizResponse, error) {
	def, err := s.definition()
	if err != nil {
		return nil, err
	}

	first, ok := def.QuestionByOrder(1)
	if !ok {
		return nil, fmt.Errorf("%w: quiz has no first question", ErrQuizDefinition)
	}

	session := engine.NewSession()
	if req != nil && req.CallerID != "" {
		session.CallerID = &req.CallerID
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, NewStorageError("create session", err)
	}

	s.logger.Info("Quiz session started",
		"session_id", session.ID,
		"quiz_id", def.QuizMeta.ID)

	s.publish(ctx, events.NewQuizStartedEvent(session.ID, def.QuizMeta.ID, session.StartedAt))

	question := first.Stripped()
	return &StartQuizResponse{
		SessionID:      session.ID,
		Question:       question,
		Progress:       engine.SessionProgress(session, def.TotalQuestions()),
		QuizMeta:       def.QuizMeta,
		TotalQuestions: def.TotalQuestions(),
	}, nil
}

func (s *quizService) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	def, err := s.definition()
	if err != nil {
		return nil, err
	}

	question, ok := def.QuestionByID(req.QuestionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuestion, req.QuestionID)
	}
	if _, ok := question.AnswerByID(req.AnswerID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAnswer, req.AnswerID)
	}

	recorded := models.RecordedAnswer{QuestionID: req.QuestionID, AnswerID: req.AnswerID}
	session, err := s.repo.Session().AppendAnswer(ctx, req.SessionID, recorded)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSessionNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repositories.ErrDuplicateAnswer):
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAnswered, req.QuestionID)
		default:
			return nil, NewStorageError("record answer", err)
		}
	}

	progress := engine.SessionProgress(session, def.TotalQuestions())
	resp := &SubmitAnswerResponse{
		SessionID: session.ID,
		Progress:  progress,
	}

	if !engine.IsSessionComplete(session, def.TotalQuestions()) {
		next, ok := def.QuestionByOrder(session.AnswerCount() + 1)
		if !ok {
			return nil, fmt.Errorf("%w: no question at position %d", ErrQuizDefinition, session.AnswerCount()+1)
		}
		question := next.Stripped()
		resp.NextQuestion = &question
		return resp, nil
	}

	result, err := s.completeSession(ctx, session, def)
	if err != nil {
		return nil, err
	}

	resp.Completed = true
	resp.Result = s.resultResponse(result, def)
	return resp, nil
}

func (s *quizService) Result(ctx context.Context, sessionID string) (*QuizResultResponse, error) {
	def, err := s.definition()
	if err != nil {
		return nil, err
	}

	var cached models.QuizResult
	if err := s.cache.Get(ctx, resultCacheKey(sessionID), &cached); err == nil {
		return s.resultResponse(&cached, def), nil
	}

	result, err := s.repo.Result().Get(ctx, sessionID)
	if err == nil {
		s.cacheResult(ctx, result)
		return s.resultResponse(result, def), nil
	}
	if !errors.Is(err, repositories.ErrResultNotFound) {
		return nil, NewStorageError("load result", err)
	}

	// No persisted result; recompute from the session if it finished.
	session, err := s.repo.Session().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewStorageError("load session", err)
	}

	if !engine.IsSessionComplete(session, def.TotalQuestions()) {
		return nil, ErrQuizNotCompleted
	}

	result, err = s.completeSession(ctx, session, def)
	if err != nil {
		return nil, err
	}
	return s.resultResponse(result, def), nil
}

func (s *quizService) Progress(ctx context.Context, sessionID string) (*engine.Progress, error) {
	def, err := s.definition()
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Session().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewStorageError("load session", err)
	}

	progress := engine.SessionProgress(session, def.TotalQuestions())
	return &progress, nil
}

func (s *quizService) Stats(ctx context.Context) (*models.SessionStats, error) {
	stats, err := s.repo.Session().Stats(ctx)
	if err != nil {
		return nil, NewStorageError("load stats", err)
	}
	return stats, nil
}

func (s *quizService) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.Session().DeleteExpired(ctx)
	if err != nil {
		return 0, NewStorageError("delete expired sessions", err)
	}
	if removed > 0 {
		s.logger.Info("Removed expired quiz sessions", "count", removed)
	}
	return removed, nil
}

// ===== HELPERS =====

// completeSession computes the result for a fully answered session, persists
// it and marks the session completed. Safe to call again for an already
// completed session: the stored completion timestamp wins.
func (s *quizService) completeSession(ctx context.Context, session *models.QuizSession, def *models.QuizDefinition) (*models.QuizResult, error) {
	result := engine.ProcessQuizResult(session, def)

	completed, err := s.repo.Session().Complete(ctx, session.ID, result.ProfileID, result.CompletedAt)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewStorageError("complete session", err)
	}

	// A concurrent completion may have stamped the session first.
	if completed.CompletedAt != nil && !completed.CompletedAt.Equal(result.CompletedAt) {
		result = engine.ProcessQuizResult(completed, def)
	}

	if err := s.repo.Result().Save(ctx, result); err != nil {
		return nil, NewStorageError("save result", err)
	}
	s.cacheResult(ctx, result)

	s.logger.Info("Quiz session completed",
		"session_id", session.ID,
		"profile_id", result.ProfileID,
		"is_fallback", result.IsFallback)

	s.publish(ctx, events.NewQuizCompletedEvent(session.ID, def.QuizMeta.ID, result, session.AnswerCount()))

	return result, nil
}

func (s *quizService) definition() (*models.QuizDefinition, error) {
	def, err := s.loader.Definition()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizDefinition, err)
	}
	return def, nil
}

func (s *quizService) resultResponse(result *models.QuizResult, def *models.QuizDefinition) *QuizResultResponse {
	return &QuizResultResponse{
		SessionID:    result.SessionID,
		Profile:      result.Profile.Data(),
		Scores:       result.Scores.Data(),
		IsFallback:   result.IsFallback,
		CompletedAt:  result.CompletedAt,
		DesignTokens: def.QuizMeta.DesignTokens,
		Disclaimer:   def.QuizMeta.Disclaimer,
	}
}

func (s *quizService) cacheResult(ctx context.Context, result *models.QuizResult) {
	if err := s.cache.Set(ctx, resultCacheKey(result.SessionID), result, resultCacheTTL); err != nil {
		s.logger.Warn("Failed to cache quiz result",
			"session_id", result.SessionID,
			"error", err)
	}
}

func (s *quizService) publish(ctx context.Context, event *events.QuizEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish quiz event",
			"event_type", event.Type,
			"error", err)
	}
}

func resultCacheKey(sessionID string) string {
	return "quiz:result:" + sessionID
}
