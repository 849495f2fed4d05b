package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2024112203_create_coursework.up.sql
var createCourseworkSQL string

func init() {
	Migrations.MustRegister(
		execUp(createCourseworkSQL),
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
DROP TABLE IF EXISTS flashcard_decks;
DROP TABLE IF EXISTS assignment_submissions;
DROP TABLE IF EXISTS assignments`)
			return err
		},
	)
}
