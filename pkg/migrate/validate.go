package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// postgresOnly lists constructs the SQLite build cannot run. Migrations are
// shared by both dialects, so none may appear.
var postgresOnly = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)\bJSONB\b`), "use TEXT for JSON payloads"},
	{regexp.MustCompile(`(?i)\b(BIG)?SERIAL\b`), "use TEXT ids generated by the service"},
	{regexp.MustCompile(`(?i)\bUUID\b`), "store UUIDs as TEXT"},
	{regexp.MustCompile(`(?i)\bTIMESTAMPTZ\b`), "use TIMESTAMP and write UTC"},
	{regexp.MustCompile(`(?i)\bNOW\(\)`), "use CURRENT_TIMESTAMP"},
	{regexp.MustCompile(`::[a-zA-Z]`), "drop the ::type cast"},
}

// ValidateDir checks every migration in dir: the filename carries a unique
// 14-digit version, both goose sections are present and the SQL avoids
// Postgres-only constructs. All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, validateSQL(name, string(b)))
	}
	return errs
}

func validateSQL(name, sql string) error {
	var errs error
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(sql, marker) {
			errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, marker))
		}
	}
	for i, line := range strings.Split(sql, "\n") {
		code, _, _ := strings.Cut(line, "--")
		for _, rule := range postgresOnly {
			if tok := rule.re.FindString(code); tok != "" {
				errs = multierr.Append(errs, fmt.Errorf("migration %q line %d: %q is not portable to sqlite, %s", name, i+1, tok, rule.hint))
			}
		}
	}
	return errs
}
