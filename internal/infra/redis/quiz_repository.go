package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"lms-service/internal/domain"
)

// loadTimeout bounds one shared course load.
const loadTimeout = 10 * time.Second

// QuizLoader fetches every topic quiz of a course from the backing store.
type QuizLoader interface {
	LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error)
}

// QuizRepository caches course quizzes in Redis (hash per course) and falls back to a loader on cache miss.
// Quizzes are stored as: HSET course:{courseID}:quizzes {chapterID}/{topicID} {quiz JSON}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, ref domain.TopicRef) (domain.QuizDefinition, error) {
	key := r.quizzesKey(ref.CourseID)

	if raw, err := r.client.HGet(ctx, key, ref.Key()).Result(); err == nil {
		return decodeQuiz(raw)
	}
	if n, err := r.client.Exists(ctx, key).Result(); err == nil && n > 0 {
		// course is cached but has no such topic
		return domain.QuizDefinition{}, domain.ErrTopicNotFound
	}

	loaded := r.sf.DoChan(ref.CourseID, func() (interface{}, error) {
		// shared by every waiter, so not bound to the caller that started it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return r.fill(loadCtx, ref.CourseID)
	})
	var result interface{}
	select {
	case <-ctx.Done():
		return domain.QuizDefinition{}, ctx.Err()
	case res := <-loaded:
		if res.Err != nil {
			return domain.QuizDefinition{}, res.Err
		}
		result = res.Val
	}
	quiz, ok := result.(map[string]domain.QuizDefinition)[ref.Key()]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrTopicNotFound
	}
	return quiz, nil
}

// fill loads a course's quizzes and writes them to the course hash.
func (r *QuizRepository) fill(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	quizzes, err := r.loader.LoadQuizzes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return quizzes, nil
	}
	fields := make(map[string]interface{}, len(quizzes))
	for field, quiz := range quizzes {
		raw, err := json.Marshal(quiz)
		if err != nil {
			return nil, errors.Wrap(err, "encoding quiz")
		}
		fields[field] = raw
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, r.quizzesKey(courseID), fields)
	if ttl := r.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, r.quizzesKey(courseID), ttl)
	}
	// best-effort: a failed cache fill only costs a reload
	_, _ = pipe.Exec(ctx)
	return quizzes, nil
}

// Invalidate drops the cached quizzes of a course.
func (r *QuizRepository) Invalidate(ctx context.Context, courseID string) error {
	return r.client.Del(ctx, r.quizzesKey(courseID)).Err()
}

func (r *QuizRepository) quizzesKey(courseID string) string {
	return "course:" + courseID + ":quizzes"
}

func decodeQuiz(raw string) (domain.QuizDefinition, error) {
	var quiz domain.QuizDefinition
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.QuizDefinition{}, errors.Wrap(err, "decoding cached quiz")
	}
	return quiz, nil
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
