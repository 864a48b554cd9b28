// Package database opens the backing relational store and exposes the
// engine/session pair the rest of the system works through. The engine
// wraps the store connection; sessions stage changes and apply them as
// single transactions.
package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recordstore/internal/model"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultPath is the sqlite file used when none is configured.
const DefaultPath = "records.db"

// Config selects and tunes the backing store.
type Config struct {
	Driver string // sqlite (default) or postgres
	Path   string // sqlite file location; ":memory:" for throwaway stores
	DSN    string // postgres connection string, used when Driver is postgres
	Echo   bool   // log every executed SQL statement
}

// Engine is the handle to the backing store. It owns the connection and
// hands out sessions.
type Engine struct {
	db *gorm.DB
}

// Open connects to the store described by cfg. The sqlite driver creates
// the file if it does not exist; postgres connects to cfg.DSN. The
// connection is verified with a ping before the engine is returned.
func Open(cfg Config) (*Engine, error) {
	logLevel := logger.Silent
	if cfg.Echo {
		logLevel = logger.Info
	}

	var dial gorm.Dialector
	switch cfg.Driver {
	case "", DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = DefaultPath
		}
		dial = sqlite.Open(path)
	case DriverPostgres:
		dial = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrConnection, cfg.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	log.Debug().Str("driver", dial.Name()).Bool("echo", cfg.Echo).Msg("store opened")
	return &Engine{db: db}, nil
}

// EnsureSchema creates the records table if it does not exist. Safe to
// call on every start.
func (e *Engine) EnsureSchema() error {
	if err := e.db.AutoMigrate(&model.Record{}); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// NewSession opens a unit of work against the store.
func (e *Engine) NewSession() *Session {
	return &Session{db: e.db}
}

// DB exposes the underlying gorm handle for the service layer.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// Ping verifies the store connection is alive.
func (e *Engine) Ping() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close releases the store connection.
func (e *Engine) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
