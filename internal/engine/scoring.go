// Package engine implements the quiz scoring and profile-matching core. All
// functions here are pure: they read their inputs, allocate new outputs and
// are safe to call concurrently.
package engine

import "github.com/astromirror/quiz-service/internal/models"

// InitializeScores returns a fresh score vector with every dimension at 0.
// Each call yields an independent value.
func InitializeScores() models.ScoreVector {
	return models.ScoreVector{}
}

// ApplyAnswerScoring returns a new vector equal to scores with the answer's
// deltas added. The input vector is never mutated. Keys in the answer's
// scoring map that are not one of the nine dimensions are silently dropped.
func ApplyAnswerScoring(scores models.ScoreVector, answer models.Answer) models.ScoreVector {
	out := scores
	for key, delta := range answer.Scoring {
		dim := models.ScoringDimension(key)
		if !models.IsValidDimension(dim) {
			continue
		}
		out.Add(dim, delta)
	}
	return out
}

// CalculateTotalScores folds ApplyAnswerScoring over InitializeScores in
// sequence order. An empty sequence yields the zero vector.
func CalculateTotalScores(answers []models.Answer) models.ScoreVector {
	scores := InitializeScores()
	for _, answer := range answers {
		scores = ApplyAnswerScoring(scores, answer)
	}
	return scores
}
