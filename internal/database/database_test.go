package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordstore/internal/database"
)

// openTestEngine opens a file-backed store under a per-test temp dir
// with the schema in place.
func openTestEngine(t *testing.T) *database.Engine {
	t.Helper()

	engine, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "records.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	require.NoError(t, engine.EnsureSchema())
	return engine
}

func TestOpenCreatesStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")

	engine, err := database.Open(database.Config{Path: path})
	require.NoError(t, err)
	defer engine.Close()

	require.NoError(t, engine.EnsureSchema())

	_, err = os.Stat(path)
	assert.NoError(t, err, "store file should exist after open")
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := database.Open(database.Config{Driver: "oracle"})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnection)
}

func TestOpenUnreachablePath(t *testing.T) {
	_, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "missing", "nested", "records.db"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnection)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	engine := openTestEngine(t)

	require.NoError(t, engine.EnsureSchema())
	require.NoError(t, engine.EnsureSchema())
}

func TestPing(t *testing.T) {
	engine := openTestEngine(t)
	assert.NoError(t, engine.Ping())

	require.NoError(t, engine.Close())
	assert.Error(t, engine.Ping())
}
