package domain

import (
	"time"

	"lms-service/internal/calendar"
)

// StreakState tracks consecutive calendar days of activity.
type StreakState struct {
	CurrentStreak  int           `json:"currentStreak"`
	BestStreak     int           `json:"bestStreak"`
	LastActiveDate *calendar.Day `json:"lastActiveDate"`
}

// Advance applies one qualifying activity on today. The second result is
// false when today was already counted and nothing changed.
func (s StreakState) Advance(today calendar.Day) (StreakState, bool) {
	next := s
	switch {
	case s.LastActiveDate == nil:
		next.CurrentStreak = 1
	default:
		gap := calendar.DaysBetween(*s.LastActiveDate, today)
		switch {
		case gap <= 0:
			// same day, or a last-active date ahead of our clock
			return s, false
		case gap == 1:
			next.CurrentStreak = s.CurrentStreak + 1
		default:
			next.CurrentStreak = 1
		}
	}
	if next.CurrentStreak > next.BestStreak {
		next.BestStreak = next.CurrentStreak
	}
	day := today
	next.LastActiveDate = &day
	return next, true
}

// DailyProgress is one bucket of study minutes.
type DailyProgress struct {
	Date    calendar.Day `json:"date"`
	Minutes int          `json:"minutes"`
}

// WeeklyMinutes sums the entries that fall inside the trailing week.
func WeeklyMinutes(log []DailyProgress, today calendar.Day) int {
	w := calendar.WeekWindow(today)
	total := 0
	for _, p := range log {
		if w.Contains(p.Date) {
			total += p.Minutes
		}
	}
	return total
}

// CourseProgress is an enrollment with course details denormalised for display.
type CourseProgress struct {
	CourseID           string    `json:"courseId"`
	Title              string    `json:"title"`
	Image              string    `json:"image,omitempty"`
	EnrolledAt         time.Time `json:"enrolledAt"`
	AvgQuizScore       int       `json:"avgQuizScore"`
	CompletedQuizCount int       `json:"completedQuizCount"`
	BestQuizScore      int       `json:"bestQuizScore"`
	LatestQuizScore    int       `json:"latestQuizScore"`
	CompletedTopics    []string  `json:"completedTopics"`
}

// Dashboard is the student's summary view.
type Dashboard struct {
	StudentID        string           `json:"studentId"`
	Name             string           `json:"name"`
	Streak           StreakState      `json:"streak"`
	Courses          []CourseProgress `json:"courses"`
	WeeklyMinutes    int              `json:"weeklyMinutes"`
	Progress         []DailyProgress  `json:"progress"`
	TotalQuizzes     int              `json:"totalQuizzes"`
	AverageQuizScore int              `json:"averageQuizScore"`
	HighestScore     int              `json:"highestScore"`
}
