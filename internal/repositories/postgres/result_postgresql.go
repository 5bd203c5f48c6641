package postgres

import (
	"context"
	"errors"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

// Save upserts on session id so recomputation after a lost result row is safe.
func (r ResultPostgreSQL) Save(ctx context.Context, result *models.QuizResult) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(result).Error
}

func (r ResultPostgreSQL) Get(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	var result models.QuizResult
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrResultNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (r ResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	var results []*models.QuizResult
	var total int64

	query := r.db.WithContext(ctx).Model(&models.QuizResult{})
	query = applyResultFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("completed_at ASC, session_id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func applyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.IsFallback != nil {
		query = query.Where("is_fallback = ?", *filters.IsFallback)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	return query
}
