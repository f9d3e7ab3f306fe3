// Package db opens the optional PostgreSQL usage ledger and applies its
// embedded schema.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const pingTimeout = 5 * time.Second

// DB is a pooled connection with the ledger schema applied by Migrate.
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// New connects to dsn. Hosted Postgres often refuses TLS negotiation
// on plain ports, so a DSN without sslmode is retried with sslmode=disable.
func New(dsn string, logger *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database connection string is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for i, candidate := range dsnCandidates(dsn) {
		if i > 0 {
			logger.Warn("retrying database connection with SSL disabled", zap.Error(lastErr))
		}
		sqlDB, err := open(candidate)
		if err == nil {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(2)
			return &DB{DB: sqlDB, logger: logger}, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func open(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlDB, nil
}

func dsnCandidates(dsn string) []string {
	if strings.Contains(strings.ToLower(dsn), "sslmode") {
		return []string{dsn}
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return []string{dsn, dsn + sep + "sslmode=disable"}
	}
	// key=value form
	return []string{dsn, dsn + " sslmode=disable"}
}

// HealthCheck pings the database.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Migration is one numbered file under migrations/, e.g. 002_payments.sql.
type Migration struct {
	Number int
	Name   string
	SQL    string
}

// Migrate applies the embedded migrations that are not yet recorded in
// schema_migrations, each in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	migrations, err := readMigrations(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.Number] {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return err
		}
		db.logger.Info("migration applied", zap.Int("version", m.Number), zap.String("name", m.Name))
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (db *DB) apply(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Number, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %d: %w", m.Number, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Number, m.Name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Number, err)
	}
	return tx.Commit()
}

// readMigrations lists the NNN_name.sql files directly in dir, ordered by
// number. Other files are ignored.
func readMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		prefix, name, ok := strings.Cut(strings.TrimSuffix(e.Name(), ".sql"), "_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Number: n, Name: name, SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
