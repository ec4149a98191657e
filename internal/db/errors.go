package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeNotNullViolation    = "23502"
)

// PGErrorCode returns the SQLSTATE of err when it wraps a *pgconn.PgError, or "" otherwise.
func PGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return PGErrorCode(err) == CodeUniqueViolation
}

// IsConstraintViolation reports whether err was raised by a table constraint rather than
// by the connection or the server being unavailable.
func IsConstraintViolation(err error) bool {
	switch PGErrorCode(err) {
	case CodeUniqueViolation, CodeForeignKeyViolation, CodeCheckViolation, CodeNotNullViolation:
		return true
	}
	return false
}
