package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

//go:embed *.sql
var Migrations embed.FS

// Up applies pending migrations through a database/sql handle opened over the
// pool's connection config.
func Up(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	db := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer db.Close()

	return up(ctx, db, log)
}

func up(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(gooseLogger{log: log})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type gooseLogger struct {
	log *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatalf(format, v...)
}
