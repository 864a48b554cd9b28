package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordstore/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RECORDSTORE_DRIVER",
		"RECORDSTORE_DB_PATH",
		"RECORDSTORE_DSN",
		"RECORDSTORE_ECHO",
		"RECORDSTORE_PORT",
		"RECORDSTORE_IMPORT_DIR",
		"RECORDSTORE_CORS_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, config.DefaultDBPath, cfg.DBPath)
	assert.False(t, cfg.Echo)
	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.DefaultImportDir, cfg.ImportDir)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECORDSTORE_DRIVER", "postgres")
	t.Setenv("RECORDSTORE_DSN", "host=localhost user=records dbname=records")
	t.Setenv("RECORDSTORE_ECHO", "true")
	t.Setenv("RECORDSTORE_PORT", "9090")
	t.Setenv("RECORDSTORE_IMPORT_DIR", "/tmp/imports")
	t.Setenv("RECORDSTORE_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "host=localhost user=records dbname=records", cfg.DSN)
	assert.True(t, cfg.Echo)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/imports", cfg.ImportDir)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECORDSTORE_PORT", "not-a-port")
	t.Setenv("RECORDSTORE_ECHO", "maybe")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.False(t, cfg.Echo)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "RECORDSTORE_DB_PATH=/tmp/from-file.db\nRECORDSTORE_PORT=7070\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
