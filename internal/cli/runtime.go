package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"lms-service/internal/app"
	"lms-service/internal/auth"
	"lms-service/internal/calendar"
	"lms-service/internal/config"
	"lms-service/internal/domain"
	"lms-service/internal/infra/memory"
	"lms-service/internal/infra/postgres"
	rediscache "lms-service/internal/infra/redis"
	"lms-service/internal/logging"
)

// runtime is everything a command needs once config is loaded and the
// backing stores are open.
type runtime struct {
	cfg     config.Config
	log     *zap.Logger
	tokens  *auth.Manager
	stores  app.Stores
	svc     *app.Services
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.log.Sync()
}

func bootstrap(ctx context.Context, path string) (*runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	clock, err := calendar.LoadClock(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: log}
	if err := rt.openStores(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	rt.tokens = auth.NewManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	rt.svc = app.NewServices(rt.stores, rt.tokens, clock, app.QuizOptions{
		AllowMultipleAttemptsPerTopic: cfg.Quiz.AllowMultipleAttemptsPerTopic,
	}, log)
	return rt, nil
}

func (r *runtime) openStores(ctx context.Context) error {
	quizTTL := config.TTLDuration(r.cfg.Quiz.TTL, 10*time.Minute)

	var loader rediscache.QuizLoader
	if r.cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, r.cfg.Postgres.URL)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, pool.Close)
		loader = postgres.NewQuizLoader(pool)
		r.stores = postgresStores(pool, memory.NewQuizRepository(loader, quizTTL))
		r.log.Info("using postgres stores")
	} else {
		courses := memory.NewCourseStore()
		loader = courses
		r.stores = memory.NewStoresWithCourses(courses, quizTTL)
		r.log.Warn("postgres not configured, data is kept in memory")
	}

	if r.cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Addr,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
		})
		r.closers = append(r.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "ping redis")
		}
		r.stores.Quizzes = rediscache.NewQuizRepository(client, loader, quizTTL)
		r.stores.Denylist = rediscache.NewTokenDenylist(client)
		r.log.Info("using redis quiz cache and token denylist", zap.String("addr", r.cfg.Redis.Addr))
	}
	return nil
}

func postgresStores(pool *pgxpool.Pool, quizzes app.QuizRepository) app.Stores {
	return app.Stores{
		Users:       postgres.NewUserStore(pool),
		Courses:     postgres.NewCourseStore(pool),
		Quizzes:     quizzes,
		Enrollments: postgres.NewEnrollmentStore(pool),
		Submissions: postgres.NewSubmissionStore(pool),
		Progress:    postgres.NewProgressStore(pool),
		Assignments: postgres.NewAssignmentStore(pool),
		Decks:       postgres.NewDeckStore(pool),
		Denylist:    memory.NewTokenDenylist(),
	}
}

// studentIDs lists every student account, for backfills.
func (r *runtime) studentIDs(ctx context.Context) ([]string, error) {
	students, err := r.stores.Users.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids, nil
}
