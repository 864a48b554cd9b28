package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"recordstore/internal/service"
)

// maxImportBytes caps the multipart form size for CSV uploads.
const maxImportBytes = 100 << 20 // 100MB

type ImportHandler struct {
	importService *service.ImportService
	importDir     string
}

func NewImportHandler(importService *service.ImportService, importDir string) *ImportHandler {
	return &ImportHandler{importService: importService, importDir: importDir}
}

// ImportCSV accepts uploaded CSV files, spools them to the import
// directory, and starts a background import job per file. It responds
// with 202 and the job ids before the imports finish.
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(h.importDir, 0755); err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large or bad request"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeBadRequest(w, "no files uploaded")
		return
	}

	fileNames := make([]string, 0, len(files))
	jobs := make(map[string]string, len(files))

	for _, header := range files {
		savePath, err := h.spool(header)
		if err != nil {
			log.Error().Str("file", header.Filename).Err(err).Msg("saving upload")
			continue
		}

		fileNames = append(fileNames, header.Filename)
		jobs[header.Filename] = h.importService.StartCSV(savePath)
	}

	if len(fileNames) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "no file could be saved"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "files accepted, import started",
		"files":   fileNames,
		"jobs":    jobs,
	})
}

// spool copies one uploaded file into the import directory.
func (h *ImportHandler) spool(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	savePath := filepath.Join(h.importDir, filepath.Base(header.Filename))
	out, err := os.Create(savePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return savePath, nil
}
