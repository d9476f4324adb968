package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationFiles embed.FS

var migrationNamePattern = regexp.MustCompile(`^(\d{3})_([a-z0-9_]+)\.sql$`)

// Migration is one versioned schema change.
type Migration struct {
	Version     string
	Description string
	Statements  []string
}

// AppliedMigration records a migration already present in the database.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// Migrations returns the embedded migrations for the store dialect in version order.
func (s *Store) Migrations() ([]Migration, error) {
	return loadMigrations(s.dialect)
}

func loadMigrations(dialect Dialect) ([]Migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read migrations for %s: %w", dialect, err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("sqlstore: invalid migration file name %q", entry.Name())
		}
		raw, err := fs.ReadFile(migrationFiles, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("sqlstore: read migration %s: %w", entry.Name(), err)
		}
		statements := splitStatements(string(raw))
		if len(statements) == 0 {
			return nil, fmt.Errorf("sqlstore: migration %s has no statements", entry.Name())
		}
		migrations = append(migrations, Migration{
			Version:     match[1],
			Description: strings.ReplaceAll(match[2], "_", " "),
			Statements:  statements,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Migrate applies every pending migration in version order. Each migration
// runs in its own transaction and is recorded in schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.versionTableDDL()); err != nil {
		return fmt.Errorf("sqlstore: create schema_migrations: %w", err)
	}

	migrations, err := s.Migrations()
	if err != nil {
		return err
	}

	applied, err := s.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	done := make(map[string]struct{}, len(applied))
	for _, m := range applied {
		done[m.Version] = struct{}{}
	}

	logger := s.logger.With("component", "migrate", "dialect", string(s.dialect))
	for _, migration := range migrations {
		if _, ok := done[migration.Version]; ok {
			continue
		}
		start := time.Now()
		err := s.withTransaction(ctx, func(tx *sql.Tx) error {
			for i, stmt := range migration.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlstore: migration %s statement %d: %w", migration.Version, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
				migration.Version, migration.Description, formatTime(s.timestamp()))
			return err
		})
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "error", err)
			return err
		}
		logger.InfoContext(ctx, "migration applied", "version", migration.Version, "description", migration.Description, "duration", time.Since(start))
	}
	return nil
}

// AppliedMigrations lists recorded migrations in version order.
func (s *Store) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			version   string
			appliedAt string
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, err
		}
		at, err := parseTime(appliedAt)
		if err != nil {
			return nil, err
		}
		applied = append(applied, AppliedMigration{Version: version, AppliedAt: at})
	}
	return applied, rows.Err()
}

func (s *Store) versionTableDDL() string {
	if s.dialect == DialectMySQL {
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) NOT NULL PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			applied_at VARCHAR(40) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	}
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`
}
