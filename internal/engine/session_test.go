package engine

import (
	"regexp"
	"testing"
	"time"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionID(t *testing.T) {
	t.Run("matches id shape", func(t *testing.T) {
		id := GenerateSessionID()

		assert.Regexp(t, regexp.MustCompile(`^quiz_[0-9a-z]+_[0-9a-z]{8}$`), id)
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			id := GenerateSessionID()
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})
}

func TestNewSession(t *testing.T) {
	before := time.Now()
	session := NewSession()

	assert.NotEmpty(t, session.ID)
	assert.False(t, session.StartedAt.Before(before))
	assert.Empty(t, session.Answers)
	assert.Nil(t, session.CompletedAt)
	assert.Equal(t, models.SessionCreated, session.State())
}

func TestSessionProgress(t *testing.T) {
	tests := []struct {
		name     string
		answered int
		total    int
		wantPct  int
	}{
		{"no answers", 0, 7, 0},
		{"one of seven rounds down", 1, 7, 14},
		{"two of seven rounds up", 2, 7, 29},
		{"halfway", 5, 10, 50},
		{"complete", 7, 7, 100},
		{"empty quiz", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &models.QuizSession{}
			for i := 0; i < tt.answered; i++ {
				session.Answers = append(session.Answers, models.RecordedAnswer{
					QuestionID: "q" + string(rune('1'+i)),
					AnswerID:   "a",
				})
			}

			progress := SessionProgress(session, tt.total)

			assert.Equal(t, tt.answered, progress.Current)
			assert.Equal(t, tt.total, progress.Total)
			assert.Equal(t, tt.wantPct, progress.Percentage)
		})
	}
}

func TestIsSessionComplete(t *testing.T) {
	session := &models.QuizSession{
		Answers: []models.RecordedAnswer{
			{QuestionID: "q1", AnswerID: "a"},
			{QuestionID: "q2", AnswerID: "b"},
		},
	}

	assert.False(t, IsSessionComplete(session, 3))
	assert.True(t, IsSessionComplete(session, 2))
}
