package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2024112201_create_accounts.up.sql
var createAccountsSQL string

func init() {
	Migrations.MustRegister(
		execUp(createAccountsSQL),
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS courses; DROP TABLE IF EXISTS users`)
			return err
		},
	)
}
