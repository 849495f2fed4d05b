package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, verification_status, verification_notes, last_login, created_at`

func (s *UserStore) Create(ctx context.Context, u domain.User) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		string(u.VerificationStatus), u.VerificationNotes, u.LastLogin, u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return errors.Wrap(err, "insert user")
}

func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (s *UserStore) getOne(ctx context.Context, sql string, arg string) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

// Update locks the user row, runs fn on it and writes the result back in the
// same transaction.
func (s *UserStore) Update(ctx context.Context, id string, fn func(*domain.User) error) (domain.User, error) {
	var out domain.User
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}
		if err := fn(&u); err != nil {
			return err
		}
		u.ID = id
		_, err = tx.Exec(ctx, `
UPDATE users SET name=$2, email=$3, password_hash=$4, role=$5,
       verification_status=$6, verification_notes=$7, last_login=$8
WHERE id=$1`,
			u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
			string(u.VerificationStatus), u.VerificationNotes, u.LastLogin)
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		if err != nil {
			return errors.Wrap(err, "update user")
		}
		out = u
		return nil
	})
	return out, err
}

func (s *UserStore) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY created_at, id`, string(role))
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()
	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, errors.Wrap(rows.Err(), "list users")
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		role, status string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &status, &u.VerificationNotes, &u.LastLogin, &u.CreatedAt)
	u.Role = domain.Role(role)
	u.VerificationStatus = domain.VerificationStatus(status)
	return u, err
}
