package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// ProgressStore holds streak rows and per-day study minutes.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) Streak(ctx context.Context, studentID string) (domain.StreakState, error) {
	state, err := scanStreak(s.pool.QueryRow(ctx,
		`SELECT current_streak, best_streak, last_active_date FROM student_streaks WHERE student_id=$1`, studentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StreakState{}, nil
	}
	return state, errors.Wrap(err, "load streak")
}

// TouchStreak locks the student's row so concurrent logins on the same day
// advance the streak once.
func (s *ProgressStore) TouchStreak(ctx context.Context, studentID string, today calendar.Day) (domain.StreakState, bool, error) {
	var (
		next    domain.StreakState
		changed bool
	)
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO student_streaks (student_id) VALUES ($1) ON CONFLICT (student_id) DO NOTHING`, studentID); err != nil {
			return errors.Wrap(err, "ensure streak row")
		}
		current, err := scanStreak(tx.QueryRow(ctx,
			`SELECT current_streak, best_streak, last_active_date FROM student_streaks WHERE student_id=$1 FOR UPDATE`, studentID))
		if err != nil {
			return errors.Wrap(err, "lock streak")
		}
		next, changed = current.Advance(today)
		if !changed {
			return nil
		}
		_, err = tx.Exec(ctx,
			`UPDATE student_streaks SET current_streak=$2, best_streak=$3, last_active_date=$4 WHERE student_id=$1`,
			studentID, next.CurrentStreak, next.BestStreak, today.Time())
		return errors.Wrap(err, "update streak")
	})
	if err != nil {
		return domain.StreakState{}, false, err
	}
	return next, changed, nil
}

func (s *ProgressStore) AddMinutes(ctx context.Context, studentID string, day calendar.Day, minutes int) (domain.DailyProgress, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
INSERT INTO daily_progress (student_id, day, minutes) VALUES ($1, $2, $3)
ON CONFLICT (student_id, day) DO UPDATE SET minutes = daily_progress.minutes + EXCLUDED.minutes
RETURNING minutes`, studentID, day.Time(), minutes).Scan(&total)
	if err != nil {
		return domain.DailyProgress{}, errors.Wrap(err, "add minutes")
	}
	return domain.DailyProgress{Date: day, Minutes: total}, nil
}

func (s *ProgressStore) Log(ctx context.Context, studentID string) ([]domain.DailyProgress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, minutes FROM daily_progress WHERE student_id=$1 ORDER BY day`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "load progress")
	}
	defer rows.Close()
	out := make([]domain.DailyProgress, 0)
	for rows.Next() {
		var (
			day     time.Time
			minutes int
		)
		if err := rows.Scan(&day, &minutes); err != nil {
			return nil, errors.Wrap(err, "scan progress")
		}
		out = append(out, domain.DailyProgress{Date: calendar.FromTime(day), Minutes: minutes})
	}
	return out, errors.Wrap(rows.Err(), "load progress")
}

func scanStreak(row pgx.Row) (domain.StreakState, error) {
	var (
		state domain.StreakState
		last  *time.Time
	)
	if err := row.Scan(&state.CurrentStreak, &state.BestStreak, &last); err != nil {
		return domain.StreakState{}, err
	}
	if last != nil {
		d := calendar.FromTime(*last)
		state.LastActiveDate = &d
	}
	return state, nil
}
