package engine

import (
	"time"

	"github.com/astromirror/quiz-service/internal/models"
)

// ProcessQuizResult turns a completed session into its result record. Each
// recorded (question, answer) pair is resolved against the quiz definition;
// pairs that no longer resolve are skipped rather than failing, so a quiz
// definition edit mid-flight degrades a result instead of breaking it.
// Pure given its inputs, except for reading the clock when the session
// carries no completion timestamp.
func ProcessQuizResult(session *models.QuizSession, def *models.QuizDefinition) *models.QuizResult {
	answered := make([]models.Answer, 0, len(session.Answers))
	for _, rec := range session.Answers {
		question, ok := def.QuestionByID(rec.QuestionID)
		if !ok {
			continue
		}
		answer, ok := question.AnswerByID(rec.AnswerID)
		if !ok {
			continue
		}
		answered = append(answered, *answer)
	}

	scores := CalculateTotalScores(answered)
	profile, _ := DetermineProfile(scores, def.Profiles, def.FallbackProfile)

	completedAt := time.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	return models.NewQuizResult(session.ID, profile, scores, completedAt)
}
