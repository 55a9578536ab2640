package domain

import "errors"

var (
	// ErrNetwork is returned when the quiz API is unreachable or answers with a non-success status.
	ErrNetwork = errors.New("quiz service unreachable")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrValidation indicates a malformed payload or missing required fields.
	ErrValidation = errors.New("invalid payload")
	// ErrInvalidTransition is returned when an operation is called in an incompatible phase.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrStorageCorrupt indicates a scratch snapshot could not be parsed.
	ErrStorageCorrupt = errors.New("stored session is corrupt")
	// ErrNothingToResume is returned by resume when no usable snapshot exists.
	ErrNothingToResume = errors.New("nothing to resume")
	// ErrConfirmationRequired signals that a non-forced submit left questions unanswered.
	ErrConfirmationRequired = errors.New("unanswered questions, confirmation required")
	// ErrQuestionNotFound indicates a question ID is not part of the active quiz.
	ErrQuestionNotFound = errors.New("question not found")
)

// Notice turns an error into the single message shown to the user.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrQuizNotFound):
		return "That quiz no longer exists."
	case errors.Is(err, ErrNetwork):
		return "Could not reach the quiz service. Please try again."
	case errors.Is(err, ErrValidation):
		return "The quiz service rejected the request."
	case errors.Is(err, ErrConfirmationRequired):
		return "Some questions are unanswered. Submit anyway?"
	case errors.Is(err, ErrNothingToResume):
		return "There is no quiz in progress."
	case errors.Is(err, ErrInvalidTransition):
		return "That action is not available right now."
	case errors.Is(err, ErrQuestionNotFound):
		return "That question is not part of this quiz."
	default:
		return "Something went wrong."
	}
}
