package memory

import (
	"time"

	"lms-service/internal/app"
)

// NewStores builds a complete in-memory store set. Quizzes are served
// from the course store through a TTL cache.
func NewStores(quizTTL time.Duration) app.Stores {
	return NewStoresWithCourses(NewCourseStore(), quizTTL)
}

// NewStoresWithCourses is NewStores over a caller-owned course store, for
// callers that put a different quiz cache in front of it.
func NewStoresWithCourses(courses *CourseStore, quizTTL time.Duration) app.Stores {
	return app.Stores{
		Users:       NewUserStore(),
		Courses:     courses,
		Quizzes:     NewQuizRepository(courses, quizTTL),
		Enrollments: NewEnrollmentStore(),
		Submissions: NewSubmissionStore(),
		Progress:    NewProgressStore(),
		Assignments: NewAssignmentStore(),
		Decks:       NewDeckStore(),
		Denylist:    NewTokenDenylist(),
	}
}
