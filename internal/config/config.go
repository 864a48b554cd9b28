// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a setting unset.
const (
	DefaultDBPath    = "records.db"
	DefaultPort      = 8080
	DefaultImportDir = "imports"
)

// Config holds the process configuration. All values come from
// RECORDSTORE_* environment variables.
type Config struct {
	Driver      string   // RECORDSTORE_DRIVER: sqlite (default) or postgres
	DBPath      string   // RECORDSTORE_DB_PATH: sqlite file location
	DSN         string   // RECORDSTORE_DSN: postgres connection string
	Echo        bool     // RECORDSTORE_ECHO: log every executed SQL statement
	Port        int      // RECORDSTORE_PORT: HTTP listen port
	CORSOrigins []string // RECORDSTORE_CORS_ORIGINS: comma-separated origins
	ImportDir   string   // RECORDSTORE_IMPORT_DIR: where uploaded CSV files are spooled
}

// Load reads configuration from the environment. When envFile is given
// it must exist and is loaded first; otherwise a ".env" in the working
// directory is loaded if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	} else {
		// Optional convenience file; missing is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Driver:    getenv("RECORDSTORE_DRIVER", "sqlite"),
		DBPath:    getenv("RECORDSTORE_DB_PATH", DefaultDBPath),
		DSN:       os.Getenv("RECORDSTORE_DSN"),
		Echo:      getenvBool("RECORDSTORE_ECHO"),
		Port:      getenvInt("RECORDSTORE_PORT", DefaultPort),
		ImportDir: getenv("RECORDSTORE_IMPORT_DIR", DefaultImportDir),
	}

	if origins := os.Getenv("RECORDSTORE_CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
