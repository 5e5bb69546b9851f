package migrations

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

const dir = "sql"

// Run выполняет goose-команду (up, down, status, ...) над встроенными миграциями.
func Run(ctx context.Context, dsn string, command string, args ...string) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("не удалось открыть БД для миграций: %w", err)
	}
	defer func() { _ = db.Close() }()

	return goose.RunContext(ctx, command, db, dir, args...)
}
