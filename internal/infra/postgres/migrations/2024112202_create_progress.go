package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2024112202_create_progress.up.sql
var createProgressSQL string

func init() {
	Migrations.MustRegister(
		execUp(createProgressSQL),
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
DROP TABLE IF EXISTS daily_progress;
DROP TABLE IF EXISTS student_streaks;
DROP TABLE IF EXISTS quiz_submissions;
DROP TABLE IF EXISTS enrollments`)
			return err
		},
	)
}
