// Package postgres implements the repositories backing the link shortener core.
//
// Uniqueness of short codes and atomicity of quota increments are enforced at
// this layer through database constraints, never through in-process state.
package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	pgErr, ok := err.(*pgconn.PgError)
	return ok && pgErr.SQLState() == uniqueViolationErrCode
}
