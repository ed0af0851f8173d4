package domain

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the given credentials
	// or id. Wrong-password logins surface as this, not as a distinct error.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registration hits the username
	// uniqueness constraint.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrQuizNotFound indicates the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates the user has no attempts on the quiz.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrInvalidQuestion indicates a structurally malformed question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrAnswerCountMismatch is returned when a submission does not carry
	// exactly one answer per question.
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
)
