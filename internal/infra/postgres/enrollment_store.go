package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// EnrollmentStore keeps the score history as JSONB next to the derived
// aggregates. Mutations lock the row, recompute in Go and write both back.
type EnrollmentStore struct {
	pool *pgxpool.Pool
}

func NewEnrollmentStore(pool *pgxpool.Pool) *EnrollmentStore {
	return &EnrollmentStore{pool: pool}
}

const enrollmentColumns = `student_id, course_id, enrolled_at, quiz_score_history,
	avg_quiz_score, completed_quiz_count, best_quiz_score, latest_quiz_score, completed_topics`

func (s *EnrollmentStore) Create(ctx context.Context, e domain.Enrollment) error {
	if e.QuizScoreHistory == nil {
		e.QuizScoreHistory = []domain.QuizScore{}
	}
	if e.CompletedTopics == nil {
		e.CompletedTopics = []string{}
	}
	e.Recompute()
	history, err := json.Marshal(e.QuizScoreHistory)
	if err != nil {
		return errors.Wrap(err, "marshal history")
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO enrollments (`+enrollmentColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.StudentID, e.CourseID, e.EnrolledAt, history,
		e.AvgQuizScore, e.CompletedQuizCount, e.BestQuizScore, e.LatestQuizScore, e.CompletedTopics)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyEnrolled
	}
	return errors.Wrap(err, "insert enrollment")
}

func (s *EnrollmentStore) Get(ctx context.Context, studentID, courseID string) (domain.Enrollment, error) {
	e, err := scanEnrollment(s.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id=$1 AND course_id=$2`, studentID, courseID))
	if err != nil {
		return domain.Enrollment{}, notFound(err, domain.ErrNotEnrolled)
	}
	return e, nil
}

func (s *EnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error) {
	return s.list(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id=$1 ORDER BY enrolled_at, course_id`, studentID)
}

func (s *EnrollmentStore) ListByCourse(ctx context.Context, courseID string) ([]domain.Enrollment, error) {
	return s.list(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE course_id=$1 ORDER BY enrolled_at, student_id`, courseID)
}

func (s *EnrollmentStore) list(ctx context.Context, sql, arg string) ([]domain.Enrollment, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}
	defer rows.Close()
	out := make([]domain.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "list enrollments")
}

func (s *EnrollmentStore) AppendScore(ctx context.Context, studentID, courseID string, score domain.QuizScore) (domain.Enrollment, error) {
	return s.mutate(ctx, studentID, courseID, func(e *domain.Enrollment) error {
		e.AppendScore(score)
		return nil
	})
}

// RebuildHistory calls load while the enrollment row is locked FOR UPDATE, so
// an AppendScore racing the rebuild waits and lands on top of the new
// history. load runs on its own pool connection.
func (s *EnrollmentStore) RebuildHistory(ctx context.Context, studentID, courseID string, load func(context.Context) ([]domain.QuizScore, error)) (domain.Enrollment, error) {
	return s.mutate(ctx, studentID, courseID, func(e *domain.Enrollment) error {
		history, err := load(ctx)
		if err != nil {
			return err
		}
		e.QuizScoreHistory = append([]domain.QuizScore{}, history...)
		e.Recompute()
		return nil
	})
}

func (s *EnrollmentStore) CompleteTopic(ctx context.Context, studentID, courseID, topicID string) (domain.Enrollment, error) {
	return s.mutate(ctx, studentID, courseID, func(e *domain.Enrollment) error {
		e.CompleteTopic(topicID)
		return nil
	})
}

func (s *EnrollmentStore) mutate(ctx context.Context, studentID, courseID string, fn func(*domain.Enrollment) error) (domain.Enrollment, error) {
	var out domain.Enrollment
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		e, err := scanEnrollment(tx.QueryRow(ctx,
			`SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id=$1 AND course_id=$2 FOR UPDATE`,
			studentID, courseID))
		if err != nil {
			return notFound(err, domain.ErrNotEnrolled)
		}
		if err := fn(&e); err != nil {
			return err
		}
		history, err := json.Marshal(e.QuizScoreHistory)
		if err != nil {
			return errors.Wrap(err, "marshal history")
		}
		_, err = tx.Exec(ctx, `
UPDATE enrollments
SET quiz_score_history=$3, avg_quiz_score=$4, completed_quiz_count=$5,
    best_quiz_score=$6, latest_quiz_score=$7, completed_topics=$8
WHERE student_id=$1 AND course_id=$2`,
			studentID, courseID, history,
			e.AvgQuizScore, e.CompletedQuizCount, e.BestQuizScore, e.LatestQuizScore, e.CompletedTopics)
		if err != nil {
			return errors.Wrap(err, "update enrollment")
		}
		out = e
		return nil
	})
	return out, err
}

func scanEnrollment(row pgx.Row) (domain.Enrollment, error) {
	var (
		e       domain.Enrollment
		history []byte
	)
	err := row.Scan(&e.StudentID, &e.CourseID, &e.EnrolledAt, &history,
		&e.AvgQuizScore, &e.CompletedQuizCount, &e.BestQuizScore, &e.LatestQuizScore, &e.CompletedTopics)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if err := json.Unmarshal(history, &e.QuizScoreHistory); err != nil {
		return domain.Enrollment{}, errors.Wrap(err, "unmarshal history")
	}
	if e.CompletedTopics == nil {
		e.CompletedTopics = []string{}
	}
	return e, nil
}
