package engine

import (
	"fmt"

	"github.com/astromirror/quiz-service/internal/models"
)

// fallbackCriteriaThreshold is the minimum number of satisfied matching
// criteria (out of 3) a best candidate needs to be returned instead of the
// fallback profile. Fixed for all quiz definitions today; if content ever
// needs a different cut-off this becomes a QuizDefinition field.
const fallbackCriteriaThreshold = 2

// Weighted points per criterion rank, plus the classification bonuses.
const (
	primaryPoints    = 3.0
	secondaryPoints  = 2.0
	tertiaryPoints   = 1.0
	elementBonus     = 0.5
	orientationBonus = 0.25
)

// WinningDimension returns the group member with the strictly highest score.
// Ties resolve to the earliest dimension in the group's canonical order, so
// identical vectors always produce identical winners.
func WinningDimension(scores models.ScoreVector, group []models.ScoringDimension) models.ScoringDimension {
	winner := group[0]
	best := scores.Get(winner)
	for _, dim := range group[1:] {
		if s := scores.Get(dim); s > best {
			winner = dim
			best = s
		}
	}
	return winner
}

// DetermineProfile selects the best-fitting profile for a score vector, or
// the fallback when no candidate matches confidently. The selection is fully
// deterministic: identical inputs always return the identical result.
func DetermineProfile(scores models.ScoreVector, profiles []models.Profile, fallback models.FallbackProfile) (models.MatchedProfile, bool) {
	element := WinningDimension(scores, models.ElementDimensions)
	modality := WinningDimension(scores, models.ModalityDimensions)
	orientation := WinningDimension(scores, models.OrientationDimensions)

	// Fast path: profiles whose id directly encodes the dominant triad.
	expectedID := fmt.Sprintf("%s_%s_%s", orientation, modality, element)
	for i := range profiles {
		if profiles[i].ID == expectedID {
			return models.MatchedArchetype(&profiles[i]), false
		}
	}

	// Weighted scan. The first strict maximum wins, so earlier catalog order
	// breaks ties between equally scored candidates.
	var (
		best           *models.Profile
		bestScore      float64
		bestMatchCount int
	)
	for i := range profiles {
		p := &profiles[i]
		criteria := p.MatchingCriteria

		var score float64
		matchCount := 0

		if scores.Get(criteria.Primary.Key) >= criteria.Primary.MinScore {
			score += primaryPoints
			matchCount++
		}
		if scores.Get(criteria.Secondary.Key) >= criteria.Secondary.MinScore {
			score += secondaryPoints
			matchCount++
		}
		if scores.Get(criteria.Tertiary.Key) >= criteria.Tertiary.MinScore {
			score += tertiaryPoints
			matchCount++
		}
		if p.Element == element {
			score += elementBonus
		}
		if p.Orientation == orientation {
			score += orientationBonus
		}

		if best == nil || score > bestScore {
			best = p
			bestScore = score
			bestMatchCount = matchCount
		}
	}

	if best != nil && bestMatchCount >= fallbackCriteriaThreshold {
		return models.MatchedArchetype(best), false
	}
	return models.MatchedFallback(&fallback), true
}
