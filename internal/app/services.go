package app

import (
	"go.uber.org/zap"
	"lms-service/internal/calendar"
)

// Stores groups the repositories a Services set runs on.
type Stores struct {
	Users       UserRepository
	Courses     CourseRepository
	Quizzes     QuizRepository
	Enrollments EnrollmentRepository
	Submissions SubmissionRepository
	Progress    ProgressRepository
	Assignments AssignmentRepository
	Decks       DeckRepository
	Denylist    TokenDenylist
}

// Services is every use case wired over one set of stores and one hub.
type Services struct {
	Hub         *ProgressHub
	Auth        *AuthService
	Courses     *CourseService
	Quizzes     *QuizService
	Progress    *ProgressService
	Assignments *AssignmentService
	Flashcards  *FlashcardService
	Admin       *AdminService
}

func NewServices(st Stores, tokens TokenIssuer, clock calendar.Clock, opts QuizOptions, log *zap.Logger) *Services {
	hub := NewProgressHub()
	progress := NewProgressService(st.Users, st.Progress, st.Enrollments, st.Courses, hub, clock, log.Named("progress"))
	return &Services{
		Hub:         hub,
		Auth:        NewAuthService(st.Users, tokens, st.Denylist, progress, clock, log.Named("auth")),
		Courses:     NewCourseService(st.Courses, st.Enrollments, st.Users, hub, clock, log.Named("courses")),
		Quizzes:     NewQuizService(st.Quizzes, st.Submissions, st.Enrollments, hub, clock, opts, log.Named("quiz")),
		Progress:    progress,
		Assignments: NewAssignmentService(st.Assignments, st.Courses, st.Enrollments, clock, log.Named("assignments")),
		Flashcards:  NewFlashcardService(st.Decks, st.Courses, clock, log.Named("flashcards")),
		Admin:       NewAdminService(st.Users, st.Courses, log.Named("admin")),
	}
}
