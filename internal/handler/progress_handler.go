package handler

import (
	"net/http"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"recordstore/internal/service"
)

type ProgressHandler struct {
	importService *service.ImportService
}

func NewProgressHandler(importService *service.ImportService) *ProgressHandler {
	return &ProgressHandler{importService: importService}
}

// FileProgress returns the progress for a specific file.
func (h *ProgressHandler) FileProgress(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeBadRequest(w, "name parameter is required")
		return
	}

	progress := h.importService.FileProgress(filepath.Base(name))
	if progress == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no import job for file"})
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// AllProgress returns the progress for every known import job.
func (h *ProgressHandler) AllProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.importService.AllProgress())
}

// StreamProgress pushes progress updates to the client as Server-Sent
// Events until the client disconnects.
func (h *ProgressHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeBadRequest(w, "streaming not supported")
		return
	}

	progressChan := make(chan *service.ProgressInfo, 16)
	h.importService.RegisterListener(progressChan)
	defer h.importService.UnregisterListener(progressChan)

	for {
		select {
		case progress := <-progressChan:
			data, err := json.Marshal(progress)
			if err != nil {
				log.Error().Err(err).Msg("marshaling progress event")
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
