package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"lms-service/internal/app"
	"lms-service/internal/auth"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
	"lms-service/internal/infra/memory"
)

const testPassword = "correct-horse"

type fixture struct {
	t      *testing.T
	ctx    context.Context
	now    time.Time
	stores app.Stores
	tokens *auth.Manager
	clock  calendar.Clock
	svc    *app.Services
}

func newFixture(t *testing.T, opts app.QuizOptions) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		now:    time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		stores: memory.NewStores(time.Minute),
		tokens: auth.NewManager("test-secret-0123456789", time.Hour),
	}
	f.clock = calendar.NewClockWithNow(time.UTC, func() time.Time { return f.now })
	f.svc = app.NewServices(f.stores, f.tokens, f.clock, opts, zap.NewNop())
	return f
}

// rewire rebuilds the services after a test swapped one of the stores.
func (f *fixture) rewire(opts app.QuizOptions) {
	f.svc = app.NewServices(f.stores, f.tokens, f.clock, opts, zap.NewNop())
}

func (f *fixture) advanceDays(n int) {
	f.now = f.now.AddDate(0, 0, n)
}

func (f *fixture) register(name string, role domain.Role) domain.User {
	f.t.Helper()
	user, err := f.svc.Auth.Register(f.ctx, app.RegisterInput{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: testPassword,
		Role:     role,
	})
	require.NoError(f.t, err)
	return user
}

func (f *fixture) student(name string) domain.User {
	return f.register(name, domain.RoleStudent)
}

func (f *fixture) verifiedTeacher(name string) domain.User {
	f.t.Helper()
	teacher := f.register(name, domain.RoleTeacher)
	approved, err := f.svc.Admin.ApproveTeacher(f.ctx, teacher.ID, "")
	require.NoError(f.t, err)
	return approved
}

// course creates "Fractions" with three topics: a four-question quiz, a
// two-question quiz and a reading topic without questions.
func (f *fixture) course(teacherID, title string) domain.Course {
	f.t.Helper()
	q := func(text, correct string) app.QuestionInput {
		return app.QuestionInput{Text: text, Options: []string{"1/2", "1/3", "1/4"}, CorrectOption: correct, Explanation: "see notes"}
	}
	course, err := f.svc.Courses.CreateCourse(f.ctx, teacherID, app.CreateCourseInput{
		Title:    title,
		Category: "Math",
		Level:    domain.LevelBeginner,
		Chapters: []app.ChapterInput{{
			Title: "Fractions",
			Topics: []app.TopicInput{
				{Title: "Halves", Video: "https://videos.example/halves", Quiz: []app.QuestionInput{
					q("one of two", "1/2"), q("one of three", "1/3"), q("one of four", "1/4"), q("two of four", "1/2"),
				}},
				{Title: "Thirds", Quiz: []app.QuestionInput{q("one of three", "1/3"), q("two of six", "1/3")}},
				{Title: "Reading", Notes: "fractions.pdf"},
			},
		}},
	})
	require.NoError(f.t, err)
	return course
}

func topicRef(c domain.Course, topic int) domain.TopicRef {
	ch := c.Chapters[0]
	return domain.TopicRef{CourseID: c.ID, ChapterID: ch.ID, TopicID: ch.Topics[topic].ID}
}

// answers answers the first `correct` questions right and the rest wrong.
func answers(c domain.Course, topic, correct int) []domain.Answer {
	quiz := c.Chapters[0].Topics[topic].Quiz
	out := make([]domain.Answer, 0, len(quiz))
	for i, q := range quiz {
		pick := q.CorrectOptionID
		if i >= correct {
			for _, o := range q.Options {
				if o.ID != q.CorrectOptionID {
					pick = o.ID
					break
				}
			}
		}
		out = append(out, domain.Answer{QuestionID: q.ID, OptionID: pick})
	}
	return out
}

func (f *fixture) submit(studentID string, c domain.Course, topic, correct int) (app.SubmissionResult, error) {
	ref := topicRef(c, topic)
	return f.svc.Quizzes.SubmitQuiz(f.ctx, app.SubmitQuizInput{
		StudentID: studentID,
		CourseID:  ref.CourseID,
		ChapterID: ref.ChapterID,
		TopicID:   ref.TopicID,
		Answers:   answers(c, topic, correct),
	})
}

func (f *fixture) enroll(studentID, courseID string) {
	f.t.Helper()
	_, err := f.svc.Courses.Enroll(f.ctx, studentID, courseID)
	require.NoError(f.t, err)
}
