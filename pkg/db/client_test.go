package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestNewOpensSQLiteWithBusyTimeout(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	client, err := New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:db_client_new?mode=memory&cache=shared",
		MaxOpenConns: 4,
	}, logg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if got := client.Dialect(); got != "sqlite3" {
		t.Fatalf("expected sqlite3 dialect, got %q", got)
	}
	if !strings.Contains(buf.String(), "database.connected") {
		t.Fatalf("expected connect log, got %s", buf.String())
	}
}

func TestSQLiteDSNAddsBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"file:orderdesk.db":                  "file:orderdesk.db?_busy_timeout=5000",
		"file:orderdesk.db?cache=shared":     "file:orderdesk.db?cache=shared&_busy_timeout=5000",
		"file:orderdesk.db?_busy_timeout=10": "file:orderdesk.db?_busy_timeout=10",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Fatalf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	q := newQueryLogger(logg, 50*time.Millisecond)

	q.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should be silent, got %s", buf.String())
	}

	q.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 2", 1 }, nil)
	if !strings.Contains(buf.String(), "db.slow_query") {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	q.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 3", 0 }, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found should be silent, got %s", buf.String())
	}

	q.Trace(context.Background(), time.Now(), func() (string, int64) { return "INSERT", 0 }, errors.New("disk full"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t, "db_ping")
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectFollowsDriver(t *testing.T) {
	client := &Client{conn: newTestDB(t, "db_dialect")}
	if got := client.Dialect(); got != "sqlite3" {
		t.Fatalf("expected sqlite3 dialect, got %q", got)
	}

	if got := dialectorFor(config.DBConfig{Driver: config.DriverPostgres, DSN: "postgres://localhost/x"}).Name(); got != "postgres" {
		t.Fatalf("expected postgres dialector, got %q", got)
	}
	if got := dialectorFor(config.DBConfig{Driver: config.DriverSQLite, DSN: "file::memory:"}).Name(); got != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is not a violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: fbr_preview_snapshots.id"), "") {
		t.Fatal("expected sqlite unique violation to match")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "fbr_preview_snapshots_pkey"`), "fbr_preview_snapshots_pkey") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error must not match")
	}
}

func TestIsUniqueViolationTypedErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_fbr_preview_snapshots_order_request"}
	if !IsUniqueViolation(fmt.Errorf("create: %w", pgErr), "uq_fbr_preview_snapshots_order_request") {
		t.Fatal("expected pgx unique violation to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if !IsUniqueViolation(&pq.Error{Code: "23505", Constraint: "fbr_preview_snapshots_pkey"}, "") {
		t.Fatal("expected lib/pq unique violation to match")
	}
	if IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, "") {
		t.Fatal("not null violation is not a unique violation")
	}
}

func TestIsUniqueViolationFromSQLiteInsert(t *testing.T) {
	db := newTestDB(t, "db_unique")
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uq_test_models_name ON test_models (name)").Error; err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if !IsUniqueViolation(err, "test_models.name") {
		t.Fatalf("expected sqlite unique violation, got %v", err)
	}
}
