// Package repositories holds the relational store for user info and session
// history, plus helpers shared by its postgres implementations.
package repositories

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgErrorCode returns the SQLSTATE carried by err, if any.
func PgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// IsUniqueViolation reports a duplicate key.
func IsUniqueViolation(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && code == pgerrcode.UniqueViolation
}

// IsForeignKeyViolation reports a reference to a missing row.
func IsForeignKeyViolation(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && code == pgerrcode.ForeignKeyViolation
}

// IsCheckViolation reports a row rejected by a CHECK constraint.
func IsCheckViolation(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && code == pgerrcode.CheckViolation
}
