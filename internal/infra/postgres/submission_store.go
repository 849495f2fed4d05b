package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// SubmissionStore is the append-only quiz attempt log.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

const submissionColumns = `id, student_id, course_id, chapter_id, topic_id, answered_questions,
	correct_count, total_questions, score_percent, submitted_at`

func (s *SubmissionStore) Create(ctx context.Context, sub domain.QuizSubmission) error {
	return insertSubmission(ctx, s.pool, sub)
}

// CreateFirstAttempt serialises attempts on the same topic with a
// transaction-scoped advisory lock before checking for an earlier one.
func (s *SubmissionStore) CreateFirstAttempt(ctx context.Context, sub domain.QuizSubmission) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		lockKey := sub.StudentID + "|" + sub.CourseID + "|" + sub.Ref().Key()
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return errors.Wrap(err, "lock attempt")
		}
		var exists bool
		err := tx.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM quiz_submissions
    WHERE student_id=$1 AND course_id=$2 AND chapter_id=$3 AND topic_id=$4
)`, sub.StudentID, sub.CourseID, sub.ChapterID, sub.TopicID).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "check attempt")
		}
		if exists {
			return domain.ErrDuplicateAttempt
		}
		return insertSubmission(ctx, tx, sub)
	})
}

func (s *SubmissionStore) ListByStudent(ctx context.Context, studentID string) ([]domain.QuizSubmission, error) {
	return s.list(ctx, `SELECT `+submissionColumns+` FROM quiz_submissions
WHERE student_id=$1 ORDER BY submitted_at, id`, studentID)
}

func (s *SubmissionStore) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]domain.QuizSubmission, error) {
	return s.list(ctx, `SELECT `+submissionColumns+` FROM quiz_submissions
WHERE student_id=$1 AND course_id=$2 ORDER BY submitted_at, id`, studentID, courseID)
}

func (s *SubmissionStore) list(ctx context.Context, sql string, args ...interface{}) ([]domain.QuizSubmission, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	defer rows.Close()
	out := make([]domain.QuizSubmission, 0)
	for rows.Next() {
		var (
			sub      domain.QuizSubmission
			answered []byte
		)
		if err := rows.Scan(&sub.ID, &sub.StudentID, &sub.CourseID, &sub.ChapterID, &sub.TopicID, &answered,
			&sub.CorrectCount, &sub.TotalQuestions, &sub.ScorePercent, &sub.SubmittedAt); err != nil {
			return nil, errors.Wrap(err, "scan submission")
		}
		if err := json.Unmarshal(answered, &sub.AnsweredQuestions); err != nil {
			return nil, errors.Wrap(err, "unmarshal answers")
		}
		out = append(out, sub)
	}
	return out, errors.Wrap(rows.Err(), "list submissions")
}

func insertSubmission(ctx context.Context, db execer, sub domain.QuizSubmission) error {
	answered, err := json.Marshal(sub.AnsweredQuestions)
	if err != nil {
		return errors.Wrap(err, "marshal answers")
	}
	_, err = db.Exec(ctx, `
INSERT INTO quiz_submissions (`+submissionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.StudentID, sub.CourseID, sub.ChapterID, sub.TopicID, answered,
		sub.CorrectCount, sub.TotalQuestions, sub.ScorePercent, sub.SubmittedAt)
	return errors.Wrap(err, "insert submission")
}
