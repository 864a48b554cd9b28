package main

import (
	"os"

	"github.com/spf13/cobra"

	"recordstore/internal/config"
	"recordstore/internal/database"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "recordstore",
	Version: Version,
	Short:   "Record store - file-backed relational store for records",
	Long: `Record store keeps records (id, name, age, gender) in a file-backed
relational store and exposes them through a CLI and a REST API.

All changes are staged in a session and written in a single transaction
on commit, so a failed commit leaves the store untouched.`,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Env file to load before reading configuration")
	rootCmd.PersistentFlags().String("db", "", "Path of the store file (sqlite driver)")
	rootCmd.PersistentFlags().String("driver", "", "Store driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "Connection string (postgres driver)")
	rootCmd.PersistentFlags().Bool("echo", false, "Echo every store statement to the log")
}

// loadConfig reads the environment configuration and applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("db") {
		cfg.DBPath, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("driver") {
		cfg.Driver, _ = cmd.Flags().GetString("driver")
	}
	if cmd.Flags().Changed("dsn") {
		cfg.DSN, _ = cmd.Flags().GetString("dsn")
	}
	if cmd.Flags().Changed("echo") {
		cfg.Echo, _ = cmd.Flags().GetBool("echo")
	}
	return cfg, nil
}

// openEngine connects to the configured store and ensures the schema
// exists. The caller owns the returned engine and must close it.
func openEngine(cmd *cobra.Command) (*database.Engine, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	engine, err := database.Open(database.Config{
		Driver: cfg.Driver,
		Path:   cfg.DBPath,
		DSN:    cfg.DSN,
		Echo:   cfg.Echo,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := engine.EnsureSchema(); err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, cfg, nil
}
