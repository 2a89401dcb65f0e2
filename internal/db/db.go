package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// connParams are applied by the driver to every pooled connection.
// foreign_keys is required for the users → items → messages cascades.
// The sqlite time format keeps UTC timestamps sortable as text.
var connParams = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_pragma=synchronous(NORMAL)",
	"_time_format=sqlite",
}

// Open opens a SQLite database connection and configures pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: gets its own empty database.
	if strings.HasPrefix(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range connParams {
		b.WriteString(sep)
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// PathFromURL turns a DATABASE_URL value into a path the sqlite driver
// accepts. It follows the SQLAlchemy form ("sqlite:///relative/path",
// "sqlite:////absolute/path", "sqlite://" for memory) and also takes
// "file:" URIs and plain paths.
func PathFromURL(url string) (string, error) {
	switch {
	case url == "":
		return "", fmt.Errorf("empty database url")
	case url == "sqlite://":
		return ":memory:", nil
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		if path == "" {
			return "", fmt.Errorf("database url %q has no path", url)
		}
		return path, nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return url, nil
	case strings.Contains(url, "://"):
		return "", fmt.Errorf("unsupported database url %q", url)
	default:
		return url, nil
	}
}
