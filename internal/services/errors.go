package services

import (
	"errors"

	apperrors "github.com/brightmind-edu/tutor-journey-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Journey errors
	ErrInvalidStage      = errors.New("operation not valid in current journey stage")
	ErrJourneyNotStarted = errors.New("journey not started - choose a subject first")
	ErrContentNotReady   = errors.New("next content not ready yet")
	ErrNoLessonPlan      = errors.New("no lesson plan available")
	ErrSectionOutOfRange = errors.New("section index out of range")

	// Quiz errors
	ErrNoActiveQuiz        = errors.New("no active quiz")
	ErrQuizIncomplete      = errors.New("quiz has unanswered questions")
	ErrEmptyQuiz           = errors.New("quiz has no questions")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrQuizAlreadyScored   = errors.New("quiz already evaluated")

	// Lesson errors
	ErrNoActiveLesson = errors.New("no active lesson")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StageError carries the stage an operation was attempted in alongside the
// stages it is allowed in, so handlers can explain the rejection.
type StageError struct {
	Op      string
	Stage   string
	Allowed []string
}

func (se *StageError) Error() string {
	return "cannot " + se.Op + " during stage " + se.Stage
}

func (se *StageError) Unwrap() error {
	return ErrInvalidStage
}

func newStageError(op, stage string, allowed ...string) *StageError {
	return &StageError{Op: op, Stage: stage, Allowed: allowed}
}

// IsRetryable reports whether an error represents a transient load failure
// the user can retry, as opposed to a usage error.
func IsRetryable(err error) bool {
	return !errors.Is(err, ErrInvalidStage) &&
		!errors.Is(err, ErrQuizIncomplete) &&
		!errors.Is(err, ErrNoActiveQuiz) &&
		!errors.Is(err, ErrAnswerCountMismatch)
}
