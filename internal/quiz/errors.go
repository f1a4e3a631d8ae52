package quiz

import "errors"

var (
	// Input and lookup errors raised while loading a session
	ErrMissingMainCourse = errors.New("main course ID is not provided")
	ErrMissingSubCourse  = errors.New("sub-course ID is not provided")
	ErrSubCourseNotFound = errors.New("sub-course not found")

	// State errors
	ErrNotLoaded        = errors.New("quiz session has not been loaded")
	ErrAlreadyLoaded    = errors.New("quiz session is already loaded")
	ErrSessionSubmitted = errors.New("quiz session has already been submitted")

	// Interaction errors
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrUnknownAnswer      = errors.New("answer is not an option of the current question")
	ErrSubmitNotReady     = errors.New("all questions must be answered before submitting")

	// ErrWriteFailed wraps any failure of the terminal submission write.
	ErrWriteFailed = errors.New("failed to submit data")
)
