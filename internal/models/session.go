package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionState describes where a session is in its lifecycle.
type SessionState string

const (
	SessionCreated    SessionState = "Created"
	SessionInProgress SessionState = "InProgress"
	SessionCompleted  SessionState = "Completed"
)

// RecordedAnswer is one (question, answer) pair in submission order.
type RecordedAnswer struct {
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
}

// QuizSession is the mutable record of one quiz-taking attempt. Answers are
// append-only: one entry per distinct question, in the order the client
// submitted them. Once completed the session is immutable apart from the
// stored profile id.
type QuizSession struct {
	ID          string                              `json:"id" gorm:"primaryKey;size:64"`
	StartedAt   time.Time                           `json:"started_at" gorm:"not null;index"`
	Answers     datatypes.JSONSlice[RecordedAnswer] `json:"answers" gorm:"type:jsonb"`
	CompletedAt *time.Time                          `json:"completed_at,omitempty"`
	ProfileID   *string                             `json:"profile_id,omitempty" gorm:"size:64"`
	CallerID    *string                             `json:"caller_id,omitempty" gorm:"size:64;index"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// AnswerCount is the number of distinct questions answered so far.
func (s *QuizSession) AnswerCount() int {
	return len(s.Answers)
}

// AnswerFor returns the recorded answer id for a question, if any.
func (s *QuizSession) AnswerFor(questionID string) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.AnswerID, true
		}
	}
	return "", false
}

// HasAnswered reports whether the question is already a key in the answer map.
func (s *QuizSession) HasAnswered(questionID string) bool {
	_, ok := s.AnswerFor(questionID)
	return ok
}

// State derives the lifecycle state from the completion marker and answer
// count. A session with a completion timestamp is Completed regardless of
// counts; answer count alone never flips the state back.
func (s *QuizSession) State() SessionState {
	if s.CompletedAt != nil {
		return SessionCompleted
	}
	if len(s.Answers) == 0 {
		return SessionCreated
	}
	return SessionInProgress
}

// IsExpired reports whether the session's TTL has elapsed at the given time.
func (s *QuizSession) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.StartedAt) > ttl
}

// QuizResult is the derived, persistable outcome of a completed session.
// Created once at completion and never mutated afterward.
type QuizResult struct {
	SessionID   string                             `json:"session_id" gorm:"primaryKey;size:64"`
	ProfileID   string                             `json:"profile_id" gorm:"size:64;not null;index"`
	Profile     datatypes.JSONType[MatchedProfile] `json:"profile" gorm:"type:jsonb"`
	Scores      datatypes.JSONType[ScoreVector]    `json:"scores" gorm:"type:jsonb"`
	IsFallback  bool                               `json:"is_fallback"`
	CompletedAt time.Time                          `json:"completed_at" gorm:"not null;index"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// NewQuizResult assembles the persistable record from its parts.
func NewQuizResult(sessionID string, profile MatchedProfile, scores ScoreVector, completedAt time.Time) *QuizResult {
	return &QuizResult{
		SessionID:   sessionID,
		ProfileID:   profile.ID(),
		Profile:     datatypes.NewJSONType(profile),
		Scores:      datatypes.NewJSONType(scores),
		IsFallback:  profile.IsFallback(),
		CompletedAt: completedAt,
	}
}

// SessionStats summarizes stored sessions and results.
type SessionStats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Results   int `json:"results"`
}
