package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestDumpNil(t *testing.T) {
	require.Equal(t, ErrorDump{}, Dump(nil))
}

func TestDumpTypedChain(t *testing.T) {
	inner := Wrap(CodeDependency, fmt.Errorf("dial: refused"), "catalog unavailable")
	err := fmt.Errorf("refresh pricing: %w", inner)

	d := Dump(err)
	require.Equal(t, CodeDependency, d.Code)
	require.True(t, d.Retryable)
	require.Len(t, d.Chain, 3)
	require.Empty(t, d.PGCode)
	require.Zero(t, d.SQLiteCode)
}

func TestDumpPostgresError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "fbr_preview_snapshots_pkey",
		TableName:      "fbr_preview_snapshots",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(Wrap(CodeInternal, pgErr, "save snapshot"))

	require.Equal(t, "23505", d.PGCode)
	require.Equal(t, "fbr_preview_snapshots_pkey", d.PGConstraint)
	require.Equal(t, "fbr_preview_snapshots", d.PGTable)
	require.Zero(t, d.SQLiteCode)
}

func TestDumpSQLiteError(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	d := Dump(fmt.Errorf("insert snapshot: %w", liteErr))

	require.Equal(t, int(sqlite3.ErrConstraint), d.SQLiteCode)
	require.Equal(t, int(sqlite3.ErrConstraintUnique), d.SQLiteExtended)
	require.NotEmpty(t, d.SQLiteMessage)
	require.Empty(t, d.PGCode)
}
