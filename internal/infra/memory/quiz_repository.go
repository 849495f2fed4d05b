package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"lms-service/internal/domain"
)

// loadTimeout bounds one shared course load.
const loadTimeout = 10 * time.Second

// QuizLoader fetches every topic quiz of a course from the backing store,
// keyed by domain.TopicRef.Key.
type QuizLoader interface {
	LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error)
}

// QuizRepository is a read-through cache of whole course quiz sets. One
// load per course is in flight at a time.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu      sync.RWMutex
	courses map[string]courseQuizzes
	jitter  *rand.Rand
}

type courseQuizzes struct {
	byTopic map[string]domain.QuizDefinition
	expires time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		courses: make(map[string]courseQuizzes),
		jitter:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, ref domain.TopicRef) (domain.QuizDefinition, error) {
	quizzes, ok := r.cached(ref.CourseID)
	if !ok {
		// the load is shared, so it must outlive whichever caller started it
		loaded := r.group.DoChan(ref.CourseID, func() (interface{}, error) {
			loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
			defer cancel()
			return r.load(loadCtx, ref.CourseID)
		})
		select {
		case <-ctx.Done():
			return domain.QuizDefinition{}, ctx.Err()
		case res := <-loaded:
			if res.Err != nil {
				return domain.QuizDefinition{}, res.Err
			}
			quizzes = res.Val.(map[string]domain.QuizDefinition)
		}
	}
	quiz, ok := quizzes[ref.Key()]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrTopicNotFound
	}
	return quiz, nil
}

func (r *QuizRepository) cached(courseID string) (map[string]domain.QuizDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.courses[courseID]
	if !ok || !r.now().Before(entry.expires) {
		return nil, false
	}
	return entry.byTopic, true
}

func (r *QuizRepository) load(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	// another caller may have filled the entry while we queued
	if quizzes, ok := r.cached(courseID); ok {
		return quizzes, nil
	}
	quizzes, err := r.loader.LoadQuizzes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.courses[courseID] = courseQuizzes{byTopic: quizzes, expires: r.now().Add(r.lifetime())}
	r.mu.Unlock()
	return quizzes, nil
}

// lifetime is the TTL plus up to 10% so entries loaded together do not
// expire together. Callers hold mu.
func (r *QuizRepository) lifetime() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + time.Duration(r.jitter.Int63n(int64(r.ttl)/10+1))
}

// Invalidate drops a course so the next lookup reloads it.
func (r *QuizRepository) Invalidate(courseID string) {
	r.mu.Lock()
	delete(r.courses, courseID)
	r.mu.Unlock()
}
