// Package postgres implements the session and result stores on PostgreSQL
// via GORM. Expiry is enforced in queries rather than by a background
// process, so expired rows behave as missing until the cleanup sweep
// removes them.
package postgres

import (
	"context"
	"time"

	"github.com/astromirror/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db      *gorm.DB
	session repositories.SessionRepository
	result  repositories.ResultRepository
}

func NewRepository(db *gorm.DB, sessionTTL time.Duration) repositories.Repository {
	return &Repository{
		db:      db,
		session: NewSessionPostgreSQL(db, sessionTTL),
		result:  NewResultPostgreSQL(db),
	}
}

func (r *Repository) Session() repositories.SessionRepository { return r.session }

func (r *Repository) Result() repositories.ResultRepository { return r.result }

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
