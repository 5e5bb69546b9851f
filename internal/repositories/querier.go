package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	sq "github.com/Masterminds/squirrel"
)

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// querierFor: внутри транзакции работаем через tx, иначе через пул.
func querierFor(pool *pgxpool.Pool, tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return pool
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool { return isPgError(err, pgUniqueViolation) }

func isForeignKeyViolation(err error) bool { return isPgError(err, pgForeignKeyViolation) }

func countRows(ctx context.Context, q Querier, builder sq.SelectBuilder) (uint64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var total uint64
	err = q.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// prefixColumns("m", "id, name") -> ["m.id", "m.name"]
func prefixColumns(alias, columns string) []string {
	parts := strings.Split(columns, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, alias+"."+strings.TrimSpace(p))
	}
	return out
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
