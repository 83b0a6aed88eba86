// Package migrate applies the embedded SQL schema with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// DefaultSQLiteDSN is used when no DSN is configured.
const DefaultSQLiteDSN = "costcalc.db"

func configureGoose(driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetTableName("schema_migrations")

	switch driver {
	case "", "sqlite", "sqlite3":
		return goose.SetDialect("sqlite3")
	case "postgres", "pgx":
		return goose.SetDialect("postgres")
	}
	return fmt.Errorf("unsupported driver for goose: %s", driver)
}

func migrationDir(driver string) string {
	if driver == "postgres" || driver == "pgx" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// openDB maps storage driver names onto the registered database/sql drivers.
func openDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "postgres", "pgx":
		return sql.Open("pgx", dsn)
	default:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		return sql.Open("sqlite", dsn)
	}
}

func run(ctx context.Context, driver, dsn string, fn func(context.Context, *sql.DB, string) error) error {
	if err := configureGoose(driver); err != nil {
		return err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return fmt.Errorf("migrate: open %s: %w", driver, err)
	}
	defer db.Close()
	return fn(ctx, db, migrationDir(driver))
}

func Up(ctx context.Context, driver, dsn string) error {
	return run(ctx, driver, dsn, func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

func Down(ctx context.Context, driver, dsn string) error {
	return run(ctx, driver, dsn, func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	})
}

func Status(ctx context.Context, driver, dsn string) error {
	return run(ctx, driver, dsn, func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	})
}

// Version reports the currently applied schema version.
func Version(ctx context.Context, driver, dsn string) (int64, error) {
	var v int64
	err := run(ctx, driver, dsn, func(ctx context.Context, db *sql.DB, _ string) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}
