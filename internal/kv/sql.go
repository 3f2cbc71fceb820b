package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/migrations"
)

// SQLStore keeps values in a single kv table of a SQLite or PostgreSQL database.
type SQLStore struct {
	driver  string
	dsn     string
	dialect migration.Dialect
	db      *sql.DB
}

// NewSQLite creates a store backed by the SQLite file at path.
func NewSQLite(path string) *SQLStore {
	return &SQLStore{driver: "sqlite", dsn: path, dialect: migration.SQLite}
}

// NewPostgres creates a store backed by the PostgreSQL database at connStr.
func NewPostgres(connStr string) *SQLStore {
	return &SQLStore{driver: "postgres", dsn: connStr, dialect: migration.Postgres}
}

func (s *SQLStore) Location() string { return s.dsn }

func (s *SQLStore) connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

func (s *SQLStore) runner() (*migration.Runner, error) {
	dir := "sqlite"
	if s.dialect == migration.Postgres {
		dir = "postgres"
	}
	subFS, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", dir, err)
	}
	return migration.NewRunner(s.db, subFS, s.dialect), nil
}

func (s *SQLStore) Init(ctx context.Context) error {
	if s.dialect == migration.SQLite {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := s.connect(ctx); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := runner.ApplyMigrations(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if s.dialect == migration.SQLite {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitual init' first")
		}
	}
	if err := s.connect(ctx); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

// Migrate applies pending migrations and returns how many ran.
func (s *SQLStore) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if err := s.connect(ctx); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

// SchemaVersion returns the applied and the latest known migration version.
func (s *SQLStore) SchemaVersion() (current, latest int, err error) {
	if s.db == nil {
		return 0, 0, errors.New("storage not loaded")
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("storage not loaded")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.db == nil {
		return "", false, errors.New("storage not loaded")
	}

	query := "SELECT value FROM kv WHERE key = ?"
	if s.dialect == migration.Postgres {
		query = "SELECT value FROM kv WHERE key = $1"
	}

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if s.db == nil {
		return errors.New("storage not loaded")
	}

	var err error
	if s.dialect == migration.Postgres {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, value)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().UTC().Format(time.RFC3339))
	}
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
