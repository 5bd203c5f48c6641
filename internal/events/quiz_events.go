package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/astromirror/quiz-service/internal/models"
)

// EventType represents different types of quiz events
type EventType string

const (
	EventQuizStarted   EventType = "quiz.started"
	EventQuizCompleted EventType = "quiz.completed"
)

// QuizEvent is the base event structure for all quiz events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuizStartedEvent struct {
	SessionID string    `json:"session_id"`
	QuizID    string    `json:"quiz_id"`
	StartedAt time.Time `json:"started_at"`
}

type QuizCompletedEvent struct {
	SessionID   string             `json:"session_id"`
	QuizID      string             `json:"quiz_id"`
	ProfileID   string             `json:"profile_id"`
	IsFallback  bool               `json:"is_fallback"`
	Scores      models.ScoreVector `json:"scores"`
	AnswerCount int                `json:"answer_count"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Event factory functions

func NewQuizStartedEvent(sessionID, quizID string, startedAt time.Time) *QuizEvent {
	return &QuizEvent{
		ID:        watermill.NewUUID(),
		Type:      EventQuizStarted,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: QuizStartedEvent{
			SessionID: sessionID,
			QuizID:    quizID,
			StartedAt: startedAt,
		},
	}
}

func NewQuizCompletedEvent(sessionID, quizID string, result *models.QuizResult, answerCount int) *QuizEvent {
	return &QuizEvent{
		ID:        watermill.NewUUID(),
		Type:      EventQuizCompleted,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: QuizCompletedEvent{
			SessionID:   sessionID,
			QuizID:      quizID,
			ProfileID:   result.ProfileID,
			IsFallback:  result.IsFallback,
			Scores:      result.Scores.Data(),
			AnswerCount: answerCount,
			CompletedAt: result.CompletedAt,
		},
	}
}
