package services

import (
	"errors"
	"fmt"

	"github.com/astromirror/quiz-service/internal/quizdata"
	apperrors "github.com/astromirror/quiz-service/internal/validator"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Session specific errors
	ErrSessionNotFound  = errors.New("quiz session not found or expired")
	ErrInvalidQuestion  = errors.New("question does not exist in this quiz")
	ErrInvalidAnswer    = errors.New("answer does not belong to this question")
	ErrAlreadyAnswered  = errors.New("question already answered in this session")
	ErrQuizNotCompleted = errors.New("quiz session is not completed yet")

	// Result specific errors
	ErrResultNotFound = errors.New("quiz result not found")

	// Definition specific errors
	ErrQuizDefinition = errors.New("quiz definition is invalid or unavailable")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from validator package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StorageError wraps a failure of the underlying session or result store so
// handlers can distinguish infrastructure faults from domain errors.
type StorageError struct {
	Op  string
	Err error
}

func (se *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", se.Op, se.Err)
}

func (se *StorageError) Unwrap() error {
	return se.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsValidation checks if error represents a rejected request
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidQuestion) ||
		errors.Is(err, ErrInvalidAnswer) ||
		errors.Is(err, ErrQuizNotCompleted) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAnswered)
}

// IsStorage checks if error represents an infrastructure failure
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsQuizDefinition checks if error represents bad quiz content
func IsQuizDefinition(err error) bool {
	return errors.Is(err, ErrQuizDefinition) ||
		errors.Is(err, quizdata.ErrInvalidDefinition)
}
