package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// AssignmentStore persists assignments; submissions cascade on delete.
type AssignmentStore struct {
	pool *pgxpool.Pool
}

func NewAssignmentStore(pool *pgxpool.Pool) *AssignmentStore {
	return &AssignmentStore{pool: pool}
}

const assignmentColumns = `id, title, description, instructions, course_id, chapter_id, teacher_id,
	max_marks, due_date, allow_late_submission, submission_type, status, created_at, updated_at`

const assignmentSubmissionColumns = `id, assignment_id, student_id, text, attachments, submitted_at,
	is_late, status, grade_marks, grade_feedback, graded_at, graded_by`

func (s *AssignmentStore) Create(ctx context.Context, a domain.Assignment) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO assignments (`+assignmentColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.Title, a.Description, a.Instructions, a.CourseID, a.ChapterID, a.TeacherID,
		a.MaxMarks, a.DueDate, a.AllowLateSubmission, string(a.SubmissionType), string(a.Status), a.CreatedAt, a.UpdatedAt)
	return errors.Wrap(err, "insert assignment")
}

func (s *AssignmentStore) Get(ctx context.Context, id string) (domain.Assignment, error) {
	a, err := scanAssignment(s.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1`, id))
	if err != nil {
		return domain.Assignment{}, notFound(err, domain.ErrAssignmentNotFound)
	}
	return a, nil
}

func (s *AssignmentStore) Update(ctx context.Context, a domain.Assignment) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE assignments SET title=$2, description=$3, instructions=$4, chapter_id=$5, max_marks=$6,
       due_date=$7, allow_late_submission=$8, submission_type=$9, status=$10, updated_at=$11
WHERE id=$1`,
		a.ID, a.Title, a.Description, a.Instructions, a.ChapterID, a.MaxMarks,
		a.DueDate, a.AllowLateSubmission, string(a.SubmissionType), string(a.Status), a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update assignment")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete assignment")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (s *AssignmentStore) ListByTeacher(ctx context.Context, teacherID string) ([]domain.Assignment, error) {
	return s.listAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments
WHERE teacher_id=$1 ORDER BY due_date, id`, teacherID)
}

func (s *AssignmentStore) ListActiveByCourses(ctx context.Context, courseIDs []string) ([]domain.Assignment, error) {
	if len(courseIDs) == 0 {
		return []domain.Assignment{}, nil
	}
	return s.listAssignments(ctx, `SELECT `+assignmentColumns+` FROM assignments
WHERE course_id = ANY($1) AND status=$2 ORDER BY due_date, id`, courseIDs, string(domain.AssignmentActive))
}

func (s *AssignmentStore) listAssignments(ctx context.Context, sql string, args ...interface{}) ([]domain.Assignment, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list assignments")
	}
	defer rows.Close()
	out := make([]domain.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan assignment")
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "list assignments")
}

func (s *AssignmentStore) CreateSubmission(ctx context.Context, sub domain.AssignmentSubmission) error {
	attachments := sub.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO assignment_submissions (id, assignment_id, student_id, text, attachments, submitted_at, is_late, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Text, attachments, sub.SubmittedAt, sub.IsLate, string(sub.Status))
	if isUniqueViolation(err) {
		return domain.ErrAlreadySubmitted
	}
	return errors.Wrap(err, "insert assignment submission")
}

func (s *AssignmentStore) GetSubmission(ctx context.Context, id string) (domain.AssignmentSubmission, error) {
	sub, err := scanAssignmentSubmission(s.pool.QueryRow(ctx,
		`SELECT `+assignmentSubmissionColumns+` FROM assignment_submissions WHERE id=$1`, id))
	if err != nil {
		return domain.AssignmentSubmission{}, notFound(err, domain.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (s *AssignmentStore) FindSubmission(ctx context.Context, assignmentID, studentID string) (domain.AssignmentSubmission, error) {
	sub, err := scanAssignmentSubmission(s.pool.QueryRow(ctx,
		`SELECT `+assignmentSubmissionColumns+` FROM assignment_submissions WHERE assignment_id=$1 AND student_id=$2`,
		assignmentID, studentID))
	if err != nil {
		return domain.AssignmentSubmission{}, notFound(err, domain.ErrSubmissionNotFound)
	}
	return sub, nil
}

func (s *AssignmentStore) ListSubmissions(ctx context.Context, assignmentID string) ([]domain.AssignmentSubmission, error) {
	return s.listSubmissions(ctx, `SELECT `+assignmentSubmissionColumns+` FROM assignment_submissions
WHERE assignment_id=$1 ORDER BY submitted_at, id`, assignmentID)
}

func (s *AssignmentStore) ListSubmissionsByStudent(ctx context.Context, studentID string) ([]domain.AssignmentSubmission, error) {
	return s.listSubmissions(ctx, `SELECT `+assignmentSubmissionColumns+` FROM assignment_submissions
WHERE student_id=$1 ORDER BY submitted_at, id`, studentID)
}

func (s *AssignmentStore) listSubmissions(ctx context.Context, sql, arg string) ([]domain.AssignmentSubmission, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "list assignment submissions")
	}
	defer rows.Close()
	out := make([]domain.AssignmentSubmission, 0)
	for rows.Next() {
		sub, err := scanAssignmentSubmission(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan assignment submission")
		}
		out = append(out, sub)
	}
	return out, errors.Wrap(rows.Err(), "list assignment submissions")
}

func (s *AssignmentStore) SaveGrade(ctx context.Context, submissionID string, g domain.Grade) (domain.AssignmentSubmission, error) {
	sub, err := scanAssignmentSubmission(s.pool.QueryRow(ctx, `
UPDATE assignment_submissions
SET status=$2, grade_marks=$3, grade_feedback=$4, graded_at=$5, graded_by=$6
WHERE id=$1
RETURNING `+assignmentSubmissionColumns,
		submissionID, string(domain.SubmissionGraded), g.Marks, g.Feedback, g.GradedAt, g.GradedBy))
	if err != nil {
		return domain.AssignmentSubmission{}, notFound(err, domain.ErrSubmissionNotFound)
	}
	return sub, nil
}

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var (
		a            domain.Assignment
		kind, status string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Instructions, &a.CourseID, &a.ChapterID, &a.TeacherID,
		&a.MaxMarks, &a.DueDate, &a.AllowLateSubmission, &kind, &status, &a.CreatedAt, &a.UpdatedAt)
	a.SubmissionType = domain.SubmissionType(kind)
	a.Status = domain.AssignmentStatus(status)
	return a, err
}

func scanAssignmentSubmission(row pgx.Row) (domain.AssignmentSubmission, error) {
	var (
		sub      domain.AssignmentSubmission
		status   string
		marks    *int
		feedback *string
		gradedAt *time.Time
		gradedBy *string
	)
	err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.StudentID, &sub.Text, &sub.Attachments, &sub.SubmittedAt,
		&sub.IsLate, &status, &marks, &feedback, &gradedAt, &gradedBy)
	if err != nil {
		return domain.AssignmentSubmission{}, err
	}
	sub.Status = domain.SubmissionStatus(status)
	if marks != nil {
		g := domain.Grade{Marks: *marks}
		if feedback != nil {
			g.Feedback = *feedback
		}
		if gradedAt != nil {
			g.GradedAt = *gradedAt
		}
		if gradedBy != nil {
			g.GradedBy = *gradedBy
		}
		sub.Grade = &g
	}
	return sub, nil
}
