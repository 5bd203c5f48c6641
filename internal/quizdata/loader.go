// Package quizdata loads and validates the quiz definition document. The
// definition is immutable once loaded; Reload exists as a development hook
// and swaps the cached copy atomically.
package quizdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/validator"
)

// ErrInvalidDefinition marks a malformed quiz definition. Treated as fatal at
// startup, not recoverable per request.
var ErrInvalidDefinition = errors.New("invalid quiz definition")

// Loader reads the quiz definition from disk. Construct one and inject it;
// there is no package-level cache.
type Loader struct {
	path      string
	validator *validator.Validator
	logger    *slog.Logger

	mu  sync.RWMutex
	def *models.QuizDefinition
}

func NewLoader(path string, v *validator.Validator, logger *slog.Logger) *Loader {
	return &Loader{
		path:      path,
		validator: v,
		logger:    logger,
	}
}

// Load reads, parses and validates the definition, caching it for subsequent
// Definition calls. Calling Load again returns the cached copy.
func (l *Loader) Load() (*models.QuizDefinition, error) {
	l.mu.RLock()
	cached := l.def
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	return l.Reload()
}

// Reload re-reads the definition from disk, replacing the cached copy on
// success. The previous definition stays in place when the new one fails
// validation.
func (l *Loader) Reload() (*models.QuizDefinition, error) {
	def, err := l.read()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.def = def
	l.mu.Unlock()

	l.logger.Info("Quiz definition loaded",
		"quiz_id", def.QuizMeta.ID,
		"version", def.QuizMeta.Version,
		"questions", len(def.Questions),
		"profiles", len(def.Profiles))

	return def, nil
}

// Definition returns the cached definition, or an error if Load has not
// succeeded yet.
func (l *Loader) Definition() (*models.QuizDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.def == nil {
		return nil, fmt.Errorf("%w: definition not loaded", ErrInvalidDefinition)
	}
	return l.def, nil
}

func (l *Loader) read() (*models.QuizDefinition, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidDefinition, l.path, err)
	}

	var def models.QuizDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidDefinition, l.path, err)
	}

	if err := Validate(&def, l.validator); err != nil {
		return nil, err
	}

	return &def, nil
}

// Validate checks structural tags plus the cross-field contracts the matcher
// relies on: unique ids, a contiguous 1..N question order with a first
// question present, and catalog order preserved (profile list order is a
// tie-break contract).
func Validate(def *models.QuizDefinition, v *validator.Validator) error {
	if err := v.Validate(def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	seenOrders := make(map[int]string, len(def.Questions))
	seenQuestions := make(map[string]struct{}, len(def.Questions))
	for i := range def.Questions {
		q := &def.Questions[i]
		if _, dup := seenQuestions[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidDefinition, q.ID)
		}
		seenQuestions[q.ID] = struct{}{}

		if other, dup := seenOrders[q.Order]; dup {
			return fmt.Errorf("%w: questions %q and %q share order %d", ErrInvalidDefinition, other, q.ID, q.Order)
		}
		seenOrders[q.Order] = q.ID

		seenAnswers := make(map[string]struct{}, len(q.Answers))
		for _, a := range q.Answers {
			if _, dup := seenAnswers[a.ID]; dup {
				return fmt.Errorf("%w: question %q has duplicate answer id %q", ErrInvalidDefinition, q.ID, a.ID)
			}
			seenAnswers[a.ID] = struct{}{}
		}
	}

	for order := 1; order <= len(def.Questions); order++ {
		if _, ok := seenOrders[order]; !ok {
			return fmt.Errorf("%w: missing question at order %d", ErrInvalidDefinition, order)
		}
	}

	seenProfiles := make(map[string]struct{}, len(def.Profiles))
	for i := range def.Profiles {
		id := def.Profiles[i].ID
		if _, dup := seenProfiles[id]; dup {
			return fmt.Errorf("%w: duplicate profile id %q", ErrInvalidDefinition, id)
		}
		seenProfiles[id] = struct{}{}
	}
	if _, dup := seenProfiles[def.FallbackProfile.ID]; dup {
		return fmt.Errorf("%w: fallback profile id %q collides with a catalog profile", ErrInvalidDefinition, def.FallbackProfile.ID)
	}

	return nil
}
