package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordstore/internal/database"
	"recordstore/internal/handler"
	"recordstore/internal/service"
)

func multipartCSV(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportCSVUpload(t *testing.T) {
	engine, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "records.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	require.NoError(t, engine.EnsureSchema())

	importService := service.NewImportService(engine)
	h := handler.NewImportHandler(importService, t.TempDir())

	body, contentType := multipartCSV(t, "people.csv",
		"id,name,age,gender\n1,Jay Mondal,22,M\n2,Aditi Chakraborty,21,F\n")

	req := httptest.NewRequest("POST", "/import", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ImportCSV(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)

	var response struct {
		Message string            `json:"message"`
		Files   []string          `json:"files"`
		Jobs    map[string]string `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, []string{"people.csv"}, response.Files)
	assert.NotEmpty(t, response.Jobs["people.csv"])

	// The import finishes in the background.
	require.Eventually(t, func() bool {
		progress := importService.FileProgress("people.csv")
		return progress != nil && progress.Status == "completed"
	}, 5*time.Second, 20*time.Millisecond)

	count, err := service.NewRecordService(engine).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestImportCSVNoFiles(t *testing.T) {
	engine, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "records.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	require.NoError(t, engine.EnsureSchema())

	importService := service.NewImportService(engine)
	h := handler.NewImportHandler(importService, t.TempDir())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ImportCSV(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
