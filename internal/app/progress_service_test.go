package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lms-service/internal/app"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

func TestDashboardAdvancesStreakOncePerDay(t *testing.T) {
	f := newFixture(t, app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	student := f.student("Sam")

	dash, err := f.svc.Progress.Dashboard(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Streak.CurrentStreak)
	require.NotNil(t, dash.Streak.LastActiveDate)
	assert.Equal(t, "2024-03-10", dash.Streak.LastActiveDate.String())

	dash, err = f.svc.Progress.Dashboard(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Streak.CurrentStreak, "same day twice")

	f.advanceDays(1)
	dash, err = f.svc.Progress.Dashboard(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Streak.CurrentStreak)
	assert.Equal(t, 2, dash.Streak.BestStreak)

	f.advanceDays(2)
	dash, err = f.svc.Progress.Dashboard(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Streak.CurrentStreak)
	assert.Equal(t, 2, dash.Streak.BestStreak)
}

func TestSnapshotLeavesStreakAlone(t *testing.T) {
	f := newFixture(t, app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	student := f.student("Sam")

	dash, err := f.svc.Progress.Snapshot(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, dash.Streak.CurrentStreak)
	assert.Nil(t, dash.Streak.LastActiveDate)
	assert.Empty(t, dash.Courses)
	assert.NotNil(t, dash.Progress)
}

func TestReportStudyAccumulatesMinutes(t *testing.T) {
	f := newFixture(t, app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	student := f.student("Sam")

	_, err := f.svc.Progress.ReportStudy(f.ctx, student.ID, 30)
	require.NoError(t, err)
	entry, err := f.svc.Progress.ReportStudy(f.ctx, student.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 45, entry.Minutes)
	assert.Equal(t, calendar.Day{Year: 2024, Month: 3, Day: 10}, entry.Date)

	zero, err := f.svc.Progress.ReportStudy(f.ctx, student.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 45, zero.Minutes)

	dash, err := f.svc.Progress.Snapshot(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, dash.WeeklyMinutes)

	f.advanceDays(7)
	_, err = f.svc.Progress.ReportStudy(f.ctx, student.ID, 10)
	require.NoError(t, err)
	dash, err = f.svc.Progress.Snapshot(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, dash.WeeklyMinutes, "the first bucket fell out of the seven-day window")
	assert.Len(t, dash.Progress, 2)
}

func TestReportStudyRejectsBadInput(t *testing.T) {
	f := newFixture(t, app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	student := f.student("Sam")
	teacher := f.register("Tara", domain.RoleTeacher)

	_, err := f.svc.Progress.ReportStudy(f.ctx, student.ID, -5)
	assert.ErrorIs(t, err, domain.ErrNegativeMinutes)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = f.svc.Progress.ReportStudy(f.ctx, teacher.ID, 5)
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)

	_, err = f.svc.Progress.Dashboard(f.ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestDashboardAggregatesAcrossCourses(t *testing.T) {
	f := newFixture(t, app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	teacher := f.verifiedTeacher("Tara")
	algebra := f.course(teacher.ID, "Algebra")
	geometry := f.course(teacher.ID, "Geometry")
	calculus := f.course(teacher.ID, "Calculus")
	student := f.student("Sam")
	for _, c := range []domain.Course{algebra, geometry, calculus} {
		f.enroll(student.ID, c.ID)
	}

	_, err := f.submit(student.ID, algebra, 0, 3)
	require.NoError(t, err)
	_, err = f.submit(student.ID, algebra, 1, 1)
	require.NoError(t, err)
	_, err = f.submit(student.ID, calculus, 1, 2)
	require.NoError(t, err)

	dash, err := f.svc.Progress.Dashboard(f.ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", dash.Name)
	assert.Equal(t, 3, dash.TotalQuizzes)
	// geometry has no quizzes yet and is left out of the average: (63 + 100) / 2
	assert.Equal(t, 82, dash.AverageQuizScore)
	assert.Equal(t, 100, dash.HighestScore)

	byID := make(map[string]domain.CourseProgress, len(dash.Courses))
	for _, cp := range dash.Courses {
		byID[cp.CourseID] = cp
	}
	require.Len(t, byID, 3)
	assert.Equal(t, "Algebra", byID[algebra.ID].Title)
	assert.Equal(t, 63, byID[algebra.ID].AvgQuizScore)
	assert.Equal(t, 0, byID[geometry.ID].CompletedQuizCount)
	assert.Equal(t, 100, byID[calculus.ID].BestQuizScore)
}
