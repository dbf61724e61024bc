package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const modulesTable = "loq_modules"

// SQLRegistry serves standard library modules from a loq_modules table.
type SQLRegistry struct {
	db     *sql.DB
	driver string
}

// OpenSQLRegistry opens a registry from "driver:dsn", for example
// "sqlite3:./std.db" or "postgres:postgres://user@host/db". The table is
// created when missing.
func OpenSQLRegistry(ctx context.Context, source string) (*SQLRegistry, error) {
	driver, dsn, ok := strings.Cut(source, ":")
	if !ok || driver == "" || dsn == "" {
		return nil, fmt.Errorf("invalid stdlib database %q, expected driver:dsn", source)
	}
	switch driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported stdlib database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		slog.Error("failed to open stdlib database", slog.String("driver", driver), slog.Any("error", err))
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("stdlib database %s: %w", driver, err)
	}

	r := NewSQLRegistry(db, driver)
	if err := r.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewSQLRegistry wraps an open database. driver selects the SQL dialect.
func NewSQLRegistry(db *sql.DB, driver string) *SQLRegistry {
	return &SQLRegistry{db: db, driver: driver}
}

func (r *SQLRegistry) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS "+modulesTable+" (path VARCHAR(255) PRIMARY KEY, source TEXT NOT NULL)")
	return err
}

func (r *SQLRegistry) placeholder(n int) string {
	if r.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *SQLRegistry) Lookup(ctx context.Context, name string) (string, bool, error) {
	var src string
	err := r.db.QueryRowContext(ctx,
		"SELECT source FROM "+modulesTable+" WHERE path = "+r.placeholder(1), name).Scan(&src)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("stdlib lookup %s: %w", name, err)
	}
	return src, true, nil
}

func (r *SQLRegistry) upsert() string {
	p1, p2 := r.placeholder(1), r.placeholder(2)
	if r.driver == "mysql" {
		return "INSERT INTO " + modulesTable + " (path, source) VALUES (?, ?) ON DUPLICATE KEY UPDATE source = VALUES(source)"
	}
	return "INSERT INTO " + modulesTable + " (path, source) VALUES (" + p1 + ", " + p2 +
		") ON CONFLICT (path) DO UPDATE SET source = excluded.source"
}

// Put stores or replaces one module.
func (r *SQLRegistry) Put(ctx context.Context, name, src string) error {
	_, err := r.db.ExecContext(ctx, r.upsert(), name, src)
	return err
}

// Names lists the stored module paths in order.
func (r *SQLRegistry) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT path FROM "+modulesTable+" ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Sync imports every source file under dir in one transaction, keyed by
// its slash-separated path relative to dir without the extension. It
// returns the number of modules written.
func (r *SQLRegistry) Sync(ctx context.Context, dir string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != SourceExt {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, SourceExt))
		if _, err := tx.ExecContext(ctx, r.upsert(), name, string(data)); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		slog.Debug("stdlib module stored", slog.String("name", name))
		count++
		return nil
	})
	if walkErr != nil {
		tx.Rollback()
		return 0, walkErr
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLRegistry) Close() error {
	return r.db.Close()
}
