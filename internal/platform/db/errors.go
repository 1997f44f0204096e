package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes inspected by callers.
const (
	codeUndefinedTable = "42P01"
)

// IsUndefinedTable reports whether err comes from querying a table that does
// not exist yet, e.g. before migrations ran.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable
}
