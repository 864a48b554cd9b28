package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"recordstore/internal/handler"
	"recordstore/internal/service"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the record store REST API server.

The server exposes record CRUD under /records, CSV import under
/import, import progress under /progress, and Prometheus metrics
under /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cfg, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("import-dir") {
			cfg.ImportDir, _ = cmd.Flags().GetString("import-dir")
		}

		if err := os.MkdirAll(cfg.ImportDir, 0755); err != nil {
			return fmt.Errorf("create import dir: %w", err)
		}

		recordService := service.NewRecordService(engine)
		importService := service.NewImportService(engine)
		router := handler.NewRouter(engine, recordService, importService, cfg.ImportDir)

		cors := gorillahandlers.CORS(gorillahandlers.AllowedOrigins(cfg.CORSOrigins))
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: cors(router),
		}

		go func() {
			log.Info().
				Str("version", Version).
				Int("port", cfg.Port).
				Msg("server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("server failed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}

		log.Info().Msg("server shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("import-dir", "", "Directory for spooled CSV uploads")
}
