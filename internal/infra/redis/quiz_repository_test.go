package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lms-service/internal/domain"
	"lms-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	courses := memory.NewCourseStore()
	require.NoError(t, courses.Create(context.Background(), sampleCourse()))
	loader := &countingLoader{QuizLoader: courses}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), sampleRef())
	require.NoError(t, err)
	assert.Equal(t, "o2", quiz.Questions[0].CorrectOptionID)
	assert.Equal(t, 1, loader.calls)
	assert.True(t, mr.Exists("course:course-1:quizzes"))

	// Second call should hit cache, loader not incremented.
	quiz, err = repo.GetQuiz(context.Background(), sampleRef())
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, sampleRef(), quiz.Ref)

	ref := sampleRef()
	ref.TopicID = "other"
	_, err = repo.GetQuiz(context.Background(), ref)
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
	assert.Equal(t, 1, loader.calls)

	require.NoError(t, repo.Invalidate(context.Background(), "course-1"))
	assert.False(t, mr.Exists("course:course-1:quizzes"))
}

func TestQuizRepositoryPropagatesLoaderErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewCourseStore(), time.Minute)
	_, err = repo.GetQuiz(context.Background(), sampleRef())
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
}

func TestQuizRepositorySharedLoadOutlivesCancelledCaller(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	courses := memory.NewCourseStore()
	require.NoError(t, courses.Create(context.Background(), sampleCourse()))
	loader := newGatedLoader(courses)
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := repo.GetQuiz(first, sampleRef())
		firstErr <- err
	}()
	<-loader.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := repo.GetQuiz(context.Background(), sampleRef())
		secondErr <- err
	}()
	// let the second caller join the in-flight load
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(loader.release)
	assert.NoError(t, <-secondErr)
}

// gatedLoader holds every load until release is closed.
type gatedLoader struct {
	QuizLoader
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedLoader(inner QuizLoader) *gatedLoader {
	return &gatedLoader{QuizLoader: inner, started: make(chan struct{}), release: make(chan struct{})}
}

func (l *gatedLoader) LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return l.QuizLoader.LoadQuizzes(ctx, courseID)
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	l.calls++
	return l.QuizLoader.LoadQuizzes(ctx, courseID)
}

func sampleRef() domain.TopicRef {
	return domain.TopicRef{CourseID: "course-1", ChapterID: "ch-1", TopicID: "t-1"}
}

func sampleCourse() domain.Course {
	return domain.Course{
		ID: "course-1",
		Chapters: []domain.Chapter{{
			ID: "ch-1",
			Topics: []domain.Topic{{
				ID: "t-1",
				Quiz: []domain.Question{{
					ID:              "q1",
					Text:            "What is 2 + 2?",
					Options:         []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}},
					CorrectOptionID: "o2",
				}},
			}},
		}},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
