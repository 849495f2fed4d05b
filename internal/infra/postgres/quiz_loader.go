package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// QuizLoader reads a course's chapters JSONB and extracts its topic quizzes.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT chapters FROM courses WHERE id=$1`, courseID).Scan(&raw)
	if err != nil {
		return nil, errors.Wrap(notFound(err, domain.ErrCourseNotFound), "load quizzes")
	}
	course := domain.Course{ID: courseID}
	if err := json.Unmarshal(raw, &course.Chapters); err != nil {
		return nil, errors.Wrap(err, "unmarshal chapters")
	}
	return course.Quizzes(), nil
}
