package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// CourseStore keeps courses with their chapter tree in a JSONB column.
type CourseStore struct {
	pool *pgxpool.Pool
}

func NewCourseStore(pool *pgxpool.Pool) *CourseStore {
	return &CourseStore{pool: pool}
}

const courseColumns = `id, teacher_id, title, description, category, level, price, image, chapters, created_at`

func (s *CourseStore) Create(ctx context.Context, c domain.Course) error {
	chapters, err := json.Marshal(c.Chapters)
	if err != nil {
		return errors.Wrap(err, "marshal chapters")
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO courses (`+courseColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.TeacherID, c.Title, c.Description, c.Category, string(c.Level), c.Price, c.Image, chapters, c.CreatedAt)
	return errors.Wrap(err, "insert course")
}

func (s *CourseStore) Get(ctx context.Context, id string) (domain.Course, error) {
	c, err := scanCourse(s.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id=$1`, id))
	if err != nil {
		return domain.Course{}, notFound(err, domain.ErrCourseNotFound)
	}
	return c, nil
}

// List applies the filter in SQL; Query matches title or description.
func (s *CourseStore) List(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.TeacherID != "" {
		add("teacher_id = $%d", filter.TeacherID)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Level != "" {
		add("level = $%d", string(filter.Level))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+q+"%")
	}
	sql := `SELECT ` + courseColumns + ` FROM courses`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	defer rows.Close()
	out := make([]domain.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "list courses")
}

func scanCourse(row pgx.Row) (domain.Course, error) {
	var (
		c        domain.Course
		level    string
		chapters []byte
	)
	if err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &c.Category, &level, &c.Price, &c.Image, &chapters, &c.CreatedAt); err != nil {
		return domain.Course{}, err
	}
	c.Level = domain.Level(level)
	if err := json.Unmarshal(chapters, &c.Chapters); err != nil {
		return domain.Course{}, errors.Wrap(err, "unmarshal chapters")
	}
	return c, nil
}
