package engine

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/astromirror/quiz-service/internal/models"
)

const sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSessionID builds a collision-resistant session identifier from a
// millisecond timestamp (base36) and an 8 character random suffix, e.g.
// "quiz_m1x2abcd_k3f9q2hz". The random component comes from crypto/rand so
// concurrent creations within the same millisecond cannot collide in
// practice.
func GenerateSessionID() string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)

	suffix := make([]byte, 8)
	max := big.NewInt(int64(len(sessionIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform entropy source is
			// broken; fall back to a time-derived index.
			n = big.NewInt(time.Now().UnixNano() % int64(len(sessionIDAlphabet)))
		}
		suffix[i] = sessionIDAlphabet[n.Int64()]
	}

	return "quiz_" + timestamp + "_" + string(suffix)
}

// NewSession creates an empty session stamped with the current time.
func NewSession() *models.QuizSession {
	return &models.QuizSession{
		ID:        GenerateSessionID(),
		StartedAt: time.Now(),
	}
}

// Progress reports how far a session has advanced through the quiz.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SessionProgress computes answered-vs-total with a rounded percentage.
func SessionProgress(session *models.QuizSession, totalQuestions int) Progress {
	current := session.AnswerCount()
	pct := 0
	if totalQuestions > 0 {
		pct = int(float64(current)/float64(totalQuestions)*100 + 0.5)
	}
	return Progress{Current: current, Total: totalQuestions, Percentage: pct}
}

// IsSessionComplete reports whether every question has a recorded answer.
func IsSessionComplete(session *models.QuizSession, totalQuestions int) bool {
	return session.AnswerCount() == totalQuestions
}
