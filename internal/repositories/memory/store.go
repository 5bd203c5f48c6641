// Package memory provides the in-memory session and result stores used for
// development and as the test fake for the state machine. Sessions expire
// passively on read, matching the persistent implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/repositories"
)

// DefaultSessionTTL is the expiry window applied when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// Store keeps sessions and results in process memory. A single RWMutex
// serializes writers, which enforces single-writer-per-session; reads hand
// out copies so callers can never mutate stored state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.QuizSession
	results  map[string]*models.QuizResult
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the session expiry window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock injects the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*models.QuizSession),
		results:  make(map[string]*models.QuizResult),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the session store view.
func (s *Store) Session() repositories.SessionRepository { return (*sessionStore)(s) }

// Result returns the result store view.
func (s *Store) Result() repositories.ResultRepository { return (*resultStore)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ===== SESSIONS =====

type sessionStore Store

func (s *sessionStore) Create(ctx context.Context, session *models.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*models.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.liveSession(id)
	if err != nil {
		return nil, err
	}
	return copySession(session), nil
}

func (s *sessionStore) AppendAnswer(ctx context.Context, id string, answer models.RecordedAnswer) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.liveSession(id)
	if err != nil {
		return nil, err
	}
	if session.HasAnswered(answer.QuestionID) {
		return nil, repositories.ErrDuplicateAnswer
	}

	session.Answers = append(session.Answers, answer)
	return copySession(session), nil
}

func (s *sessionStore) Complete(ctx context.Context, id string, profileID string, completedAt time.Time) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.liveSession(id)
	if err != nil {
		return nil, err
	}
	if session.CompletedAt == nil {
		session.CompletedAt = &completedAt
		session.ProfileID = &profileID
	}
	return copySession(session), nil
}

func (s *sessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for id, session := range s.sessions {
		if session.IsExpired(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *sessionStore) Stats(ctx context.Context) (*models.SessionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.SessionStats{Results: len(s.results)}
	now := s.now()
	for _, session := range s.sessions {
		if session.IsExpired(now, s.ttl) {
			continue
		}
		if session.CompletedAt != nil {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}

// liveSession returns the stored session, treating expired entries as
// missing. Callers hold at least a read lock.
func (s *sessionStore) liveSession(id string) (*models.QuizSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	if session.IsExpired(s.now(), s.ttl) {
		return nil, repositories.ErrSessionNotFound
	}
	return session, nil
}

func copySession(session *models.QuizSession) *models.QuizSession {
	out := *session
	out.Answers = make([]models.RecordedAnswer, len(session.Answers))
	copy(out.Answers, session.Answers)
	if session.CompletedAt != nil {
		t := *session.CompletedAt
		out.CompletedAt = &t
	}
	if session.ProfileID != nil {
		p := *session.ProfileID
		out.ProfileID = &p
	}
	if session.CallerID != nil {
		c := *session.CallerID
		out.CallerID = &c
	}
	return &out
}

// ===== RESULTS =====

type resultStore Store

func (s *resultStore) Save(ctx context.Context, result *models.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *result
	s.results[result.SessionID] = &stored
	return nil
}

func (s *resultStore) Get(ctx context.Context, sessionID string) (*models.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[sessionID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	out := *result
	return &out, nil
}

func (s *resultStore) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.QuizResult
	for _, result := range s.results {
		if filters.IsFallback != nil && result.IsFallback != *filters.IsFallback {
			continue
		}
		if filters.DateFrom != nil && result.CompletedAt.Before(*filters.DateFrom) {
			continue
		}
		if filters.DateTo != nil && result.CompletedAt.After(*filters.DateTo) {
			continue
		}
		out := *result
		matched = append(matched, &out)
	}

	// Stable order for paging: oldest first, session id as tie-break.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CompletedAt.Equal(matched[j].CompletedAt) {
			return matched[i].CompletedAt.Before(matched[j].CompletedAt)
		}
		return matched[i].SessionID < matched[j].SessionID
	})
	total := int64(len(matched))

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}
