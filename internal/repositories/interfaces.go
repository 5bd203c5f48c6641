package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/astromirror/quiz-service/internal/models"
)

// Storage-level sentinel errors. Services translate these into their own
// error taxonomy; handlers never see them directly.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrResultNotFound  = errors.New("result not found")
	ErrDuplicateAnswer = errors.New("question already answered")
)

// IsNotFoundError checks if error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrResultNotFound)
}

// SessionRepository stores quiz sessions. Implementations enforce the
// single-writer-per-session invariant: AppendAnswer and Complete are atomic
// read-modify-writes, and concurrent duplicates for the same question resolve
// to one winner with ErrDuplicateAnswer for the loser.
//
// Expiry is passive: Get treats a session past its TTL as not found.
// DeleteExpired is the optional maintenance sweep and is safe to run
// concurrently with live reads and writes.
type SessionRepository interface {
	Create(ctx context.Context, session *models.QuizSession) error
	Get(ctx context.Context, id string) (*models.QuizSession, error)

	// AppendAnswer inserts one (question, answer) pair, preserving
	// submission order. Fails with ErrSessionNotFound (missing or expired)
	// or ErrDuplicateAnswer (question already recorded; the stored answer
	// is kept).
	AppendAnswer(ctx context.Context, id string, answer models.RecordedAnswer) (*models.QuizSession, error)

	// Complete stamps the completion timestamp and profile id. Idempotent:
	// an already-completed session is returned unchanged, keeping
	// completed_at stable.
	Complete(ctx context.Context, id string, profileID string, completedAt time.Time) (*models.QuizSession, error)

	DeleteExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.SessionStats, error)
}

// ResultRepository stores computed quiz results, one per session.
type ResultRepository interface {
	Save(ctx context.Context, result *models.QuizResult) error
	Get(ctx context.Context, sessionID string) (*models.QuizResult, error)
	List(ctx context.Context, filters ResultFilters) ([]*models.QuizResult, int64, error)
}

// ResultFilters narrows and pages result listings (export, auditing).
type ResultFilters struct {
	IsFallback *bool      `json:"is_fallback"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// Repository aggregates the stores behind one injection point.
type Repository interface {
	Session() SessionRepository
	Result() ResultRepository
	Ping(ctx context.Context) error
	Close() error
}
