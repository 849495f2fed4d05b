package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations is the ordered set applied by the migrate command and at startup.
var Migrations = migrate.NewMigrations()

func execUp(sql string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, sql)
		return err
	}
}
