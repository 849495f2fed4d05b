package domain

import "github.com/pkg/errors"

// Kind classifies failures so transports can map them without knowing every sentinel.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidQuizState
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotEnrolled
	KindDuplicateAttempt
	KindConflict
)

// Error is a sentinel error tagged with a Kind.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// KindOf unwraps err until it finds a domain error; anything else is internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return KindInternal
}

// Invalid builds an InvalidInput error with a custom message.
func Invalid(msg string) error {
	return newError(KindInvalidInput, msg)
}

var (
	// ErrUserNotFound is returned when no account matches the id or e-mail.
	ErrUserNotFound = newError(KindNotFound, "user not found")
	// ErrStudentNotFound is returned when the id does not belong to a student.
	ErrStudentNotFound = newError(KindNotFound, "student not found")
	// ErrTeacherNotFound is returned when the id does not belong to a teacher.
	ErrTeacherNotFound = newError(KindNotFound, "teacher not found")
	// ErrCourseNotFound indicates the course could not be loaded.
	ErrCourseNotFound = newError(KindNotFound, "course not found")
	// ErrTopicNotFound indicates the chapter or topic does not exist in the course.
	ErrTopicNotFound = newError(KindNotFound, "chapter or topic not found")

	ErrAssignmentNotFound = newError(KindNotFound, "assignment not found")
	ErrSubmissionNotFound = newError(KindNotFound, "submission not found")
	ErrDeckNotFound       = newError(KindNotFound, "flashcard deck not found")
	ErrCardNotFound       = newError(KindNotFound, "flashcard not found")

	// ErrInvalidQuizState is returned when a topic's quiz has no questions.
	ErrInvalidQuizState = newError(KindInvalidQuizState, "quiz has no questions")
	// ErrNegativeMinutes rejects study reports below zero.
	ErrNegativeMinutes = newError(KindInvalidInput, "minutes must be a non-negative number")

	// ErrInvalidCredentials covers both unknown e-mail and wrong password.
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid email or password")
	// ErrInvalidToken is returned for missing, malformed, expired or revoked tokens.
	ErrInvalidToken = newError(KindUnauthorized, "invalid or expired token")
	// ErrForbidden is returned when the caller does not own the resource or lacks the role.
	ErrForbidden = newError(KindForbidden, "access denied")
	// ErrTeacherNotVerified blocks unverified teachers from publishing content.
	ErrTeacherNotVerified = newError(KindForbidden, "teacher account is not verified")

	// ErrNotEnrolled is returned when a student acts on a course they have not joined.
	ErrNotEnrolled = newError(KindNotEnrolled, "student is not enrolled in this course")
	// ErrDuplicateAttempt is returned when repeat quiz attempts are disabled.
	ErrDuplicateAttempt = newError(KindDuplicateAttempt, "quiz already attempted for this topic")

	ErrEmailTaken       = newError(KindConflict, "email already registered")
	ErrAlreadyEnrolled  = newError(KindConflict, "already enrolled in this course")
	ErrAlreadySubmitted = newError(KindConflict, "assignment already submitted")
)
