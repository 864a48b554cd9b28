package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"recordstore/internal/database"
	"recordstore/internal/service"
)

// NewRouter wires every endpoint of the record store API.
func NewRouter(engine *database.Engine, recordService *service.RecordService, importService *service.ImportService, importDir string) *mux.Router {
	metrics := NewMetrics()
	recordHandler := NewRecordHandler(recordService)
	importHandler := NewImportHandler(importService, importDir)
	progressHandler := NewProgressHandler(importService)

	watchImports(importService, metrics)

	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/records", metrics.InstrumentHandler("GET", "/records", recordHandler.ListRecords)).Methods("GET")
	r.HandleFunc("/records", metrics.InstrumentHandler("POST", "/records", recordHandler.CreateRecord)).Methods("POST")
	r.HandleFunc("/records/ages", metrics.InstrumentHandler("POST", "/records/ages", recordHandler.AdjustAges)).Methods("POST")
	r.HandleFunc("/records/{id:[0-9]+}", metrics.InstrumentHandler("GET", "/records/{id}", recordHandler.GetRecord)).Methods("GET")
	r.HandleFunc("/records/{id:[0-9]+}", metrics.InstrumentHandler("PATCH", "/records/{id}", recordHandler.UpdateRecord)).Methods("PATCH")
	r.HandleFunc("/records/{id:[0-9]+}", metrics.InstrumentHandler("DELETE", "/records/{id}", recordHandler.DeleteRecord)).Methods("DELETE")

	r.HandleFunc("/import", metrics.InstrumentHandler("POST", "/import", importHandler.ImportCSV)).Methods("POST")

	r.HandleFunc("/progress", metrics.InstrumentHandler("GET", "/progress", progressHandler.AllProgress)).Methods("GET")
	r.HandleFunc("/progress/file", metrics.InstrumentHandler("GET", "/progress/file", progressHandler.FileProgress)).Methods("GET")
	// The SSE stream stays uninstrumented so long-lived connections do
	// not distort the duration histogram.
	r.HandleFunc("/progress/stream", progressHandler.StreamProgress).Methods("GET")

	r.HandleFunc("/healthz", metrics.InstrumentHandler("GET", "/healthz", healthz(engine, recordService, metrics))).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

// healthz pings the store and refreshes the record count gauge.
func healthz(engine *database.Engine, recordService *service.RecordService, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down", "error": err.Error()})
			return
		}
		if count, err := recordService.Count(); err == nil {
			metrics.SetRecordCount(count)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// watchImports feeds completed import jobs into the row counters.
func watchImports(importService *service.ImportService, metrics *Metrics) {
	ch := make(chan *service.ProgressInfo, 64)
	importService.RegisterListener(ch)
	go func() {
		for progress := range ch {
			if progress.Status == "completed" {
				metrics.RecordImportRows(progress.Processed-progress.Skipped, progress.Skipped)
			}
		}
	}()
}

// requestLogger logs each request with its status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
