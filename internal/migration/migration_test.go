package migration

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestGetCurrentVersionFreshDatabase(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), SQLite)

	version, err := runner.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestApplyMigrations(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"002_more.sql": "CREATE TABLE more (id INTEGER);",
		"001_kv.sql":   "CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT);",
		"README.md":    "ignored",
	}), SQLite)

	var logs []string
	applied, err := runner.ApplyMigrations(func(s string) { logs = append(logs, s) })
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.NotEmpty(t, logs)

	version, err := runner.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.Exec("INSERT INTO kv (key, value) VALUES ('a', 'b')")
	assert.NoError(t, err)

	applied, err = runner.ApplyMigrations(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.NoError(t, runner.ValidateVersion())
}

func TestApplyMigrationsRollsBackFailure(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"001_ok.sql":  "CREATE TABLE ok (id INTEGER);",
		"002_bad.sql": "CREATE TABLE broken (",
	}), SQLite)

	applied, err := runner.ApplyMigrations(nil)
	assert.Error(t, err)
	assert.Equal(t, 1, applied)

	version, err := runner.GetCurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestReadMigrationFilesRejectsBadNames(t *testing.T) {
	tests := map[string]map[string]string{
		"no underscore":     {"001.sql": "SELECT 1;"},
		"non numeric":       {"abc_init.sql": "SELECT 1;"},
		"zero version":      {"000_init.sql": "SELECT 1;"},
		"duplicate version": {"001_a.sql": "SELECT 1;", "1_b.sql": "SELECT 1;"},
	}

	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), mapFS(files), SQLite)
			_, err := runner.ReadMigrationFiles()
			assert.Error(t, err)
		})
	}
}

func TestValidateVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql": "CREATE TABLE a (id INTEGER);",
	}), SQLite)

	assert.ErrorContains(t, runner.ValidateVersion(), "run 'habitual migrate'", "fresh database is behind")

	_, err := runner.ApplyMigrations(nil)
	require.NoError(t, err)
	assert.NoError(t, runner.ValidateVersion())

	_, err = db.Exec("UPDATE schema_version SET version = 5")
	require.NoError(t, err)
	assert.ErrorContains(t, runner.ValidateVersion(), "newer than supported")
}
