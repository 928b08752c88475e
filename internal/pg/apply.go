package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// коды Postgres, означающие «уже есть»
const (
	codeDuplicateObject = "42710"
	codeDuplicateTable  = "42P07"
)

// Execer то, что нужно ApplyDDL от *sql.DB или *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ApplyDDL выполняет map[key]sql в порядке ключей, по одному оператору.
// Ожидается idempotent DDL (create ... if not exists); дубли ограничений пропускаются.
func ApplyDDL(ctx context.Context, db Execer, ddl map[string]string) error {
	for _, k := range SortedKeys(ddl) {
		for _, stmt := range splitStatements(ddl[k]) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				// pgx/stdlib возвращает *pgconn.PgError
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && (pgErr.Code == codeDuplicateObject || pgErr.Code == codeDuplicateTable) {
					slog.Debug("DDL skipped (already exists)", "key", k, "code", pgErr.Code, "object", pgErr.ConstraintName, "message", strings.TrimSpace(pgErr.Message))
					continue
				}
				return fmt.Errorf("DDL apply failed (%s): %w", k, err)
			}
		}
	}
	return nil
}

// splitStatements режет скрипт по ";" в конце строки. GenerateDDL не пишет
// ";" внутри операторов.
func splitStatements(script string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
