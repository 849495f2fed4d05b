package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"lms-service/internal/app"
	"lms-service/internal/auth"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
	"lms-service/internal/infra/memory"
	"lms-service/internal/infra/postgres"
	pgmigrations "lms-service/internal/infra/postgres/migrations"
	infraredis "lms-service/internal/infra/redis"
)

const testPassword = "correct-horse"

type env struct {
	t      *testing.T
	ctx    context.Context
	now    time.Time
	pool   *pgxpool.Pool
	redis  *goredis.Client
	stores app.Stores
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	applyMigrations(t, ctx, pgURL)

	pool, err := postgres.Connect(ctx, pgURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	client, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	e := &env{
		t:     t,
		ctx:   ctx,
		now:   time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		pool:  pool,
		redis: client,
	}
	e.stores = app.Stores{
		Users:       postgres.NewUserStore(pool),
		Courses:     postgres.NewCourseStore(pool),
		Quizzes:     infraredis.NewQuizRepository(client, postgres.NewQuizLoader(pool), 5*time.Minute),
		Enrollments: postgres.NewEnrollmentStore(pool),
		Submissions: postgres.NewSubmissionStore(pool),
		Progress:    postgres.NewProgressStore(pool),
		Assignments: postgres.NewAssignmentStore(pool),
		Decks:       postgres.NewDeckStore(pool),
		Denylist:    infraredis.NewTokenDenylist(client),
	}
	return e
}

func (e *env) services(opts app.QuizOptions) *app.Services {
	clock := calendar.NewClockWithNow(time.UTC, func() time.Time { return e.now })
	return app.NewServices(e.stores, auth.NewManager("integration-secret-0123", time.Hour), clock, opts, zap.NewNop())
}

func (e *env) register(svc *app.Services, name string, role domain.Role) domain.User {
	e.t.Helper()
	user, err := svc.Auth.Register(e.ctx, app.RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: testPassword,
		Role:     role,
	})
	require.NoError(e.t, err)
	return user
}

func (e *env) course(svc *app.Services, teacherName string) domain.Course {
	e.t.Helper()
	teacher := e.register(svc, teacherName, domain.RoleTeacher)
	_, err := svc.Admin.ApproveTeacher(e.ctx, teacher.ID, "")
	require.NoError(e.t, err)

	q := func(text, correct string) app.QuestionInput {
		return app.QuestionInput{Text: text, Options: []string{"1/2", "1/3", "1/4"}, CorrectOption: correct}
	}
	course, err := svc.Courses.CreateCourse(e.ctx, teacher.ID, app.CreateCourseInput{
		Title: "Fractions",
		Level: domain.LevelBeginner,
		Chapters: []app.ChapterInput{{
			Title: "Basics",
			Topics: []app.TopicInput{
				{Title: "Halves", Quiz: []app.QuestionInput{
					q("one of two", "1/2"), q("one of three", "1/3"), q("one of four", "1/4"), q("two of four", "1/2"),
				}},
				{Title: "Thirds", Quiz: []app.QuestionInput{q("one of three", "1/3"), q("two of six", "1/3")}},
				{Title: "Reading", Notes: "fractions.pdf"},
			},
		}},
	})
	require.NoError(e.t, err)
	return course
}

func quizInput(studentID string, c domain.Course, topic, correct int) app.SubmitQuizInput {
	ch := c.Chapters[0]
	in := app.SubmitQuizInput{StudentID: studentID, CourseID: c.ID, ChapterID: ch.ID, TopicID: ch.Topics[topic].ID}
	for i, q := range ch.Topics[topic].Quiz {
		pick := q.CorrectOptionID
		if i >= correct {
			for _, o := range q.Options {
				if o.ID != q.CorrectOptionID {
					pick = o.ID
					break
				}
			}
		}
		in.Answers = append(in.Answers, domain.Answer{QuestionID: q.ID, OptionID: pick})
	}
	return in
}

func TestLearningFlowOnPostgresAndRedis(t *testing.T) {
	e := newEnv(t)
	svc := e.services(app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
	course := e.course(svc, "ada")
	student := e.register(svc, "sam", domain.RoleStudent)

	_, err := svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 0, 3))
	require.ErrorIs(t, err, domain.ErrNotEnrolled)

	_, err = svc.Courses.Enroll(e.ctx, student.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Courses.Enroll(e.ctx, student.ID, course.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	t.Run("quiz aggregates", func(t *testing.T) {
		res, err := svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 0, 3))
		require.NoError(t, err)
		assert.Equal(t, 75, res.Submission.ScorePercent)
		assert.Equal(t, 75, res.Enrollment.AvgQuizScore)

		res, err = svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 1, 1))
		require.NoError(t, err)
		assert.Equal(t, 63, res.Enrollment.AvgQuizScore)
		assert.Equal(t, 2, res.Enrollment.CompletedQuizCount)
		assert.Equal(t, 75, res.Enrollment.BestQuizScore)
		assert.Equal(t, 50, res.Enrollment.LatestQuizScore)

		_, err = svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 2, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidQuizState)

		report, err := svc.Quizzes.Reaggregate(e.ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, app.ReaggregateReport{Enrollments: 1, Submissions: 2}, report)

		enrollment, err := e.stores.Enrollments.Get(e.ctx, student.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, 63, enrollment.AvgQuizScore)
		assert.Len(t, enrollment.QuizScoreHistory, 2)

		// a late aggregate update for an already rebuilt submission is a no-op
		subs, err := e.stores.Submissions.ListByStudentCourse(e.ctx, student.ID, course.ID)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		enrollment, err = e.stores.Enrollments.AppendScore(e.ctx, student.ID, course.ID, subs[0].ScoreEntry())
		require.NoError(t, err)
		assert.Len(t, enrollment.QuizScoreHistory, 2)
		assert.Equal(t, subs[0].ID, enrollment.QuizScoreHistory[0].SubmissionID)
	})

	t.Run("quiz cache lives in redis", func(t *testing.T) {
		keys, err := e.redis.Keys(e.ctx, "*"+course.ID+"*").Result()
		require.NoError(t, err)
		assert.NotEmpty(t, keys)
	})

	t.Run("completed topics are a set", func(t *testing.T) {
		ref := domain.TopicRef{CourseID: course.ID, ChapterID: course.Chapters[0].ID, TopicID: course.Chapters[0].Topics[2].ID}
		_, err := svc.Courses.CompleteTopic(e.ctx, student.ID, ref)
		require.NoError(t, err)
		enrollment, err := svc.Courses.CompleteTopic(e.ctx, student.ID, ref)
		require.NoError(t, err)
		assert.Equal(t, []string{ref.TopicID}, enrollment.CompletedTopics)
	})

	t.Run("streak and study time", func(t *testing.T) {
		dash, err := svc.Progress.Dashboard(e.ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, dash.Streak.CurrentStreak)

		_, err = svc.Progress.ReportStudy(e.ctx, student.ID, 15)
		require.NoError(t, err)
		entry, err := svc.Progress.ReportStudy(e.ctx, student.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 25, entry.Minutes)

		e.now = e.now.AddDate(0, 0, 1)
		_, err = svc.Progress.ReportStudy(e.ctx, student.ID, 5)
		require.NoError(t, err)

		dash, err = svc.Progress.Dashboard(e.ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, dash.Streak.CurrentStreak)
		assert.Equal(t, 2, dash.Streak.BestStreak)
		assert.Len(t, dash.Progress, 2)
		assert.Equal(t, 30, dash.WeeklyMinutes)
		assert.Equal(t, 2, dash.TotalQuizzes)
		assert.Equal(t, 63, dash.AverageQuizScore)
		assert.Equal(t, 75, dash.HighestScore)

		e.now = e.now.AddDate(0, 0, 5)
		state, err := svc.Progress.TouchStreak(e.ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, state.CurrentStreak)
		assert.Equal(t, 2, state.BestStreak)
	})

	t.Run("logout revokes through redis", func(t *testing.T) {
		login, err := svc.Auth.Login(e.ctx, "sam@example.com", testPassword)
		require.NoError(t, err)
		claims, err := auth.NewManager("integration-secret-0123", time.Hour).Parse(login.Token.Value)
		require.NoError(t, err)

		require.NoError(t, svc.Auth.Logout(e.ctx, claims))
		revoked, err := svc.Auth.IsRevoked(e.ctx, claims.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestConcurrentSubmissions(t *testing.T) {
	e := newEnv(t)

	t.Run("aggregate keeps every attempt", func(t *testing.T) {
		svc := e.services(app.QuizOptions{AllowMultipleAttemptsPerTopic: true})
		course := e.course(svc, "grace")
		student := e.register(svc, "lin", domain.RoleStudent)
		_, err := svc.Courses.Enroll(e.ctx, student.ID, course.ID)
		require.NoError(t, err)

		var g errgroup.Group
		for i := 0; i < 8; i++ {
			correct := i % 5
			g.Go(func() error {
				_, err := svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 0, correct))
				return err
			})
		}
		require.NoError(t, g.Wait())

		enrollment, err := e.stores.Enrollments.Get(e.ctx, student.ID, course.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, enrollment.CompletedQuizCount)
		assert.Len(t, enrollment.QuizScoreHistory, 8)
	})

	t.Run("first attempt wins when repeats are disabled", func(t *testing.T) {
		svc := e.services(app.QuizOptions{AllowMultipleAttemptsPerTopic: false})
		course := e.course(svc, "hopper")
		student := e.register(svc, "mo", domain.RoleStudent)
		_, err := svc.Courses.Enroll(e.ctx, student.ID, course.ID)
		require.NoError(t, err)

		var accepted, duplicates int32
		var g errgroup.Group
		for i := 0; i < 6; i++ {
			g.Go(func() error {
				_, err := svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 1, 2))
				switch {
				case err == nil:
					atomic.AddInt32(&accepted, 1)
				case domain.KindOf(err) == domain.KindDuplicateAttempt:
					atomic.AddInt32(&duplicates, 1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.EqualValues(t, 1, accepted)
		assert.EqualValues(t, 5, duplicates)

		subs, err := e.stores.Submissions.ListByStudentCourse(e.ctx, student.ID, course.ID)
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})
}

func TestMemoryAndPostgresAgree(t *testing.T) {
	e := newEnv(t)
	run := func(svc *app.Services) domain.Enrollment {
		course := e.course(svc, "turing")
		student := e.register(svc, "kim", domain.RoleStudent)
		_, err := svc.Courses.Enroll(e.ctx, student.ID, course.ID)
		require.NoError(t, err)
		for _, c := range []int{4, 1, 3} {
			_, err := svc.Quizzes.SubmitQuiz(e.ctx, quizInput(student.ID, course, 0, c))
			require.NoError(t, err)
		}
		enrollment, err := svc.Courses.CompleteTopic(e.ctx, student.ID, domain.TopicRef{
			CourseID: course.ID, ChapterID: course.Chapters[0].ID, TopicID: course.Chapters[0].Topics[0].ID,
		})
		require.NoError(t, err)
		return enrollment
	}

	pg := run(e.services(app.QuizOptions{AllowMultipleAttemptsPerTopic: true}))
	clock := calendar.NewClockWithNow(time.UTC, func() time.Time { return e.now })
	mem := run(app.NewServices(memory.NewStores(time.Minute), auth.NewManager("integration-secret-0123", time.Hour), clock,
		app.QuizOptions{AllowMultipleAttemptsPerTopic: true}, zap.NewNop()))

	assert.Equal(t, mem.AvgQuizScore, pg.AvgQuizScore)
	assert.Equal(t, mem.BestQuizScore, pg.BestQuizScore)
	assert.Equal(t, mem.LatestQuizScore, pg.LatestQuizScore)
	assert.Equal(t, mem.CompletedQuizCount, pg.CompletedQuizCount)
	assert.Equal(t, 67, pg.AvgQuizScore)
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx), "migrator init")
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err, "migrate")
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "lms", "POSTGRES_PASSWORD": "lmspass", "POSTGRES_DB": "lmsdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://lms:lmspass@%s:%s/lmsdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
