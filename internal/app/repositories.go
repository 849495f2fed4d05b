package app

import (
	"context"
	"time"

	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// UserRepository stores accounts of every role.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// Update applies fn to the current stored user and saves the result as
	// one atomic step. An error from fn leaves the user unchanged.
	Update(ctx context.Context, id string, fn func(*domain.User) error) (domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// CourseRepository stores course documents with their embedded chapters.
type CourseRepository interface {
	Create(ctx context.Context, course domain.Course) error
	Get(ctx context.Context, id string) (domain.Course, error)
	List(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, ref domain.TopicRef) (domain.QuizDefinition, error)
}

// EnrollmentRepository owns enrollment records. AppendScore and
// RebuildHistory must recompute aggregates atomically per enrollment.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment domain.Enrollment) error
	Get(ctx context.Context, studentID, courseID string) (domain.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Enrollment, error)
	AppendScore(ctx context.Context, studentID, courseID string, score domain.QuizScore) (domain.Enrollment, error)
	// RebuildHistory replaces the history with the result of load, which runs
	// while the enrollment is locked. A failing load leaves it unchanged.
	RebuildHistory(ctx context.Context, studentID, courseID string, load func(context.Context) ([]domain.QuizScore, error)) (domain.Enrollment, error)
	CompleteTopic(ctx context.Context, studentID, courseID, topicID string) (domain.Enrollment, error)
}

// SubmissionRepository is the durable, append-only quiz attempt log.
type SubmissionRepository interface {
	Create(ctx context.Context, submission domain.QuizSubmission) error
	// CreateFirstAttempt fails with domain.ErrDuplicateAttempt when the
	// student already has a submission for the same topic.
	CreateFirstAttempt(ctx context.Context, submission domain.QuizSubmission) error
	// ListByStudent returns submissions ordered by SubmittedAt.
	ListByStudent(ctx context.Context, studentID string) ([]domain.QuizSubmission, error)
	ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]domain.QuizSubmission, error)
}

// ProgressRepository holds streak state and daily study buckets.
type ProgressRepository interface {
	Streak(ctx context.Context, studentID string) (domain.StreakState, error)
	// TouchStreak applies StreakState.Advance for today as one atomic update.
	TouchStreak(ctx context.Context, studentID string, today calendar.Day) (domain.StreakState, bool, error)
	// AddMinutes upserts the day's bucket and increments it atomically.
	AddMinutes(ctx context.Context, studentID string, day calendar.Day, minutes int) (domain.DailyProgress, error)
	// Log returns the buckets ordered by date.
	Log(ctx context.Context, studentID string) ([]domain.DailyProgress, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment domain.Assignment) error
	Get(ctx context.Context, id string) (domain.Assignment, error)
	Update(ctx context.Context, assignment domain.Assignment) error
	// Delete removes the assignment and its submissions.
	Delete(ctx context.Context, id string) error
	ListByTeacher(ctx context.Context, teacherID string) ([]domain.Assignment, error)
	ListActiveByCourses(ctx context.Context, courseIDs []string) ([]domain.Assignment, error)

	CreateSubmission(ctx context.Context, submission domain.AssignmentSubmission) error
	GetSubmission(ctx context.Context, id string) (domain.AssignmentSubmission, error)
	FindSubmission(ctx context.Context, assignmentID, studentID string) (domain.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]domain.AssignmentSubmission, error)
	ListSubmissionsByStudent(ctx context.Context, studentID string) ([]domain.AssignmentSubmission, error)
	SaveGrade(ctx context.Context, submissionID string, grade domain.Grade) (domain.AssignmentSubmission, error)
}

type DeckRepository interface {
	Create(ctx context.Context, deck domain.Deck) error
	Get(ctx context.Context, id string) (domain.Deck, error)
	Update(ctx context.Context, deck domain.Deck) error
	Delete(ctx context.Context, id string) error
	ListByCreator(ctx context.Context, teacherID string) ([]domain.Deck, error)
	ListPublishedByCourse(ctx context.Context, courseID string) ([]domain.Deck, error)
}

// TokenDenylist remembers revoked token ids until they would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
