package app

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// ProgressService owns streaks, study-time buckets and the student dashboard.
type ProgressService struct {
	users       UserRepository
	progress    ProgressRepository
	enrollments EnrollmentRepository
	courses     CourseRepository
	hub         *ProgressHub
	clock       calendar.Clock
	log         *zap.Logger
}

func NewProgressService(
	users UserRepository,
	progress ProgressRepository,
	enrollments EnrollmentRepository,
	courses CourseRepository,
	hub *ProgressHub,
	clock calendar.Clock,
	log *zap.Logger,
) *ProgressService {
	return &ProgressService{
		users:       users,
		progress:    progress,
		enrollments: enrollments,
		courses:     courses,
		hub:         hub,
		clock:       clock,
		log:         log,
	}
}

func (s *ProgressService) requireStudent(ctx context.Context, studentID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, studentID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrStudentNotFound
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "loading student")
	}
	if !user.IsStudent() {
		return domain.User{}, domain.ErrStudentNotFound
	}
	return user, nil
}

// TouchStreak records a qualifying activity for today. Repeated calls on the
// same calendar day leave the streak untouched.
func (s *ProgressService) TouchStreak(ctx context.Context, studentID string) (domain.StreakState, error) {
	if _, err := s.requireStudent(ctx, studentID); err != nil {
		return domain.StreakState{}, err
	}
	return s.touch(ctx, studentID)
}

func (s *ProgressService) touch(ctx context.Context, studentID string) (domain.StreakState, error) {
	today := s.clock.Today()
	state, changed, err := s.progress.TouchStreak(ctx, studentID, today)
	if err != nil {
		return domain.StreakState{}, errors.Wrap(err, "updating streak")
	}
	if changed {
		s.log.Debug("streak advanced",
			zap.String("student_id", studentID),
			zap.Stringer("day", today),
			zap.Int("current", state.CurrentStreak))
	}
	return state, nil
}

// ReportStudy adds minutes to today's study bucket.
func (s *ProgressService) ReportStudy(ctx context.Context, studentID string, minutes int) (domain.DailyProgress, error) {
	if minutes < 0 {
		return domain.DailyProgress{}, domain.ErrNegativeMinutes
	}
	if _, err := s.requireStudent(ctx, studentID); err != nil {
		return domain.DailyProgress{}, err
	}
	entry, err := s.progress.AddMinutes(ctx, studentID, s.clock.Today(), minutes)
	if err != nil {
		return domain.DailyProgress{}, errors.Wrap(err, "recording study time")
	}
	s.hub.Publish(studentID)
	return entry, nil
}

// Dashboard is the student's entry point: it counts as a day of activity for
// the streak before assembling the read-only summary.
func (s *ProgressService) Dashboard(ctx context.Context, studentID string) (domain.Dashboard, error) {
	user, err := s.requireStudent(ctx, studentID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	if _, err := s.touch(ctx, studentID); err != nil {
		return domain.Dashboard{}, err
	}
	return s.build(ctx, user)
}

// Snapshot is Dashboard without the streak side effect.
func (s *ProgressService) Snapshot(ctx context.Context, studentID string) (domain.Dashboard, error) {
	user, err := s.requireStudent(ctx, studentID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	return s.build(ctx, user)
}

func (s *ProgressService) build(ctx context.Context, user domain.User) (domain.Dashboard, error) {
	streak, err := s.progress.Streak(ctx, user.ID)
	if err != nil {
		return domain.Dashboard{}, errors.Wrap(err, "loading streak")
	}
	log, err := s.progress.Log(ctx, user.ID)
	if err != nil {
		return domain.Dashboard{}, errors.Wrap(err, "loading progress log")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, user.ID)
	if err != nil {
		return domain.Dashboard{}, errors.Wrap(err, "loading enrollments")
	}

	dash := domain.Dashboard{
		StudentID:     user.ID,
		Name:          user.Name,
		Streak:        streak,
		Courses:       make([]domain.CourseProgress, 0, len(enrollments)),
		WeeklyMinutes: domain.WeeklyMinutes(log, s.clock.Today()),
		Progress:      log,
	}
	if dash.Progress == nil {
		dash.Progress = []domain.DailyProgress{}
	}

	avgSum, avgCount := 0, 0
	for _, e := range enrollments {
		cp := domain.CourseProgress{
			CourseID:           e.CourseID,
			EnrolledAt:         e.EnrolledAt,
			AvgQuizScore:       e.AvgQuizScore,
			CompletedQuizCount: e.CompletedQuizCount,
			BestQuizScore:      e.BestQuizScore,
			LatestQuizScore:    e.LatestQuizScore,
			CompletedTopics:    e.CompletedTopics,
		}
		if cp.CompletedTopics == nil {
			cp.CompletedTopics = []string{}
		}
		course, err := s.courses.Get(ctx, e.CourseID)
		switch {
		case err == nil:
			cp.Title = course.Title
			cp.Image = course.Image
		case errors.Is(err, domain.ErrCourseNotFound):
			s.log.Warn("enrollment references missing course",
				zap.String("student_id", user.ID), zap.String("course_id", e.CourseID))
		default:
			return domain.Dashboard{}, errors.Wrap(err, "loading course")
		}
		dash.Courses = append(dash.Courses, cp)

		dash.TotalQuizzes += e.CompletedQuizCount
		if e.CompletedQuizCount > 0 {
			avgSum += e.AvgQuizScore
			avgCount++
		}
		for _, h := range e.QuizScoreHistory {
			if h.ScorePercent > dash.HighestScore {
				dash.HighestScore = h.ScorePercent
			}
		}
	}
	dash.AverageQuizScore = domain.RoundedMean(avgSum, avgCount)
	return dash, nil
}
