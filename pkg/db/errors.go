package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique or primary key violation
// from Postgres (pgx or lib/pq) or SQLite. A non-empty constraintName must also
// match: Postgres reports the constraint name, SQLite the offending columns.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgxErr):
		return pgxErr.Code == pgUniqueViolation && matches(pgxErr.ConstraintName+" "+pgxErr.Message, constraintName)
	case errors.As(err, &pqErr):
		return string(pqErr.Code) == pgUniqueViolation && matches(pqErr.Constraint+" "+pqErr.Message, constraintName)
	case errors.As(err, &liteErr):
		unique := liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		return unique && matches(liteErr.Error(), constraintName)
	}

	msg := err.Error()
	dup := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	return dup && matches(msg, constraintName)
}

func matches(text, constraintName string) bool {
	return constraintName == "" || strings.Contains(text, constraintName)
}
