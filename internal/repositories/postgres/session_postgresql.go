package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewSessionPostgreSQL(db *gorm.DB, ttl time.Duration) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db, ttl: ttl}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.QuizSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) Get(ctx context.Context, id string) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).
		Where("id = ? AND started_at > ?", id, s.cutoff()).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

// AppendAnswer records an answer under a row lock so concurrent submissions
// for the same session cannot interleave the duplicate check and the write.
func (s SessionPostgreSQL) AppendAnswer(ctx context.Context, id string, answer models.RecordedAnswer) (*models.QuizSession, error) {
	var session models.QuizSession

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND started_at > ?", id, s.cutoff()).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrSessionNotFound
			}
			return err
		}

		if session.HasAnswered(answer.QuestionID) {
			return repositories.ErrDuplicateAnswer
		}

		session.Answers = append(session.Answers, answer)
		return tx.Model(&session).Update("answers", session.Answers).Error
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (s SessionPostgreSQL) Complete(ctx context.Context, id string, profileID string, completedAt time.Time) (*models.QuizSession, error) {
	var session models.QuizSession

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND started_at > ?", id, s.cutoff()).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repositories.ErrSessionNotFound
			}
			return err
		}

		// Re-completing keeps the original stamp and profile.
		if session.CompletedAt != nil {
			return nil
		}

		session.CompletedAt = &completedAt
		session.ProfileID = &profileID
		return tx.Model(&session).Updates(map[string]interface{}{
			"completed_at": completedAt,
			"profile_id":   profileID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (s SessionPostgreSQL) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("started_at <= ?", s.cutoff()).
		Delete(&models.QuizSession{})
	return result.RowsAffected, result.Error
}

func (s SessionPostgreSQL) Stats(ctx context.Context) (*models.SessionStats, error) {
	var stats models.SessionStats
	var active, completed, results int64

	if err := s.db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("started_at > ? AND completed_at IS NULL", s.cutoff()).
		Count(&active).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("started_at > ? AND completed_at IS NOT NULL", s.cutoff()).
		Count(&completed).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&models.QuizResult{}).
		Count(&results).Error; err != nil {
		return nil, err
	}

	stats = models.SessionStats{
		Active:    int(active),
		Completed: int(completed),
		Results:   int(results),
	}

	return &stats, nil
}

// cutoff is the oldest start time still considered live.
func (s SessionPostgreSQL) cutoff() time.Time {
	return time.Now().Add(-s.ttl)
}
