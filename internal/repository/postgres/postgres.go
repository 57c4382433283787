// Package postgres implements the repository interfaces with database/sql and
// parameterized queries. No business logic lives here; constraint enforcement
// (uniqueness, cascade delete) is delegated to the schema.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
