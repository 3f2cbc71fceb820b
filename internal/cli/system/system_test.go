package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/kv"
)

// Wednesday noon
var baseTime = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func newContext(t *testing.T, store kv.Store) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx, err := cli.NewContext(context.Background(), store, cli.Config{Store: store.Location(), Timezone: "UTC"},
		cli.WithClock(clockwork.NewFakeClockAt(baseTime)), cli.WithOutput(&out))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ctx, &out
}

func newSQLiteContext(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	ctx, out := newContext(t, kv.NewSQLite(dbPath))
	return ctx, out, dbPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, out, dbPath := newSQLiteContext(t)

	require.NoError(t, (&InitCmd{}).Run(ctx))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file was created")
	assert.Contains(t, out.String(), "Initialized habitual storage at: "+dbPath)
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, out, _ := newSQLiteContext(t)

	require.NoError(t, (&InitCmd{}).Run(ctx))
	_, err := ctx.Repo.Create(ctx.Ctx, "Read")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, (&InitCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Found 1 existing habit(s)")
	assert.Len(t, ctx.Repo.List(), 1)
}

func TestInitCmd_ForceSQLite(t *testing.T) {
	ctx, out, dbPath := newSQLiteContext(t)

	require.NoError(t, (&InitCmd{}).Run(ctx))
	_, err := ctx.Repo.Create(ctx.Ctx, "Read")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, (&InitCmd{Force: true}).Run(ctx))
	assert.Contains(t, out.String(), "Deleted existing database at: "+dbPath)
	assert.Empty(t, ctx.Repo.List())
}

func TestInitCmd_ForceMemory(t *testing.T) {
	ctx, out := newContext(t, kv.NewMemory())
	require.NoError(t, ctx.Load())
	_, err := ctx.Repo.Create(ctx.Ctx, "Read")
	require.NoError(t, err)

	require.NoError(t, (&InitCmd{Force: true}).Run(ctx))
	assert.Contains(t, out.String(), "Cleared existing habits and reminders")
	assert.Empty(t, ctx.Repo.List())
}

func TestDisplayLocationMasksPasswords(t *testing.T) {
	assert.Equal(t, "/tmp/habitual.db", displayLocation("/tmp/habitual.db"))
	assert.Equal(t, "redis://:****@localhost:6379/0", displayLocation("redis://:secret@localhost:6379/0"))
}
