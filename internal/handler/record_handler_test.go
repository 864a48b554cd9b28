package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordstore/internal/database"
	"recordstore/internal/handler"
	"recordstore/internal/model"
	"recordstore/internal/service"
)

// newRecordAPI builds a seeded record service and a router with the
// record routes. Metrics instrumentation is left out so each test can
// build its own router.
func newRecordAPI(t *testing.T) (*service.RecordService, *mux.Router) {
	t.Helper()

	engine, err := database.Open(database.Config{
		Path: filepath.Join(t.TempDir(), "records.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	require.NoError(t, engine.EnsureSchema())

	svc := service.NewRecordService(engine)
	_, err = svc.Seed()
	require.NoError(t, err)

	h := handler.NewRecordHandler(svc)
	router := mux.NewRouter()
	router.HandleFunc("/records", h.ListRecords).Methods("GET")
	router.HandleFunc("/records", h.CreateRecord).Methods("POST")
	router.HandleFunc("/records/ages", h.AdjustAges).Methods("POST")
	router.HandleFunc("/records/{id:[0-9]+}", h.GetRecord).Methods("GET")
	router.HandleFunc("/records/{id:[0-9]+}", h.UpdateRecord).Methods("PATCH")
	router.HandleFunc("/records/{id:[0-9]+}", h.DeleteRecord).Methods("DELETE")
	return svc, router
}

func TestListRecords(t *testing.T) {
	_, router := newRecordAPI(t)

	tests := []struct {
		name           string
		queryParams    map[string]string
		expectedStatus int
		expectedLen    int
	}{
		{"all records", map[string]string{}, http.StatusOK, 5},
		{"filter by name", map[string]string{"name": "Mondal"}, http.StatusOK, 3},
		{"filter by gender", map[string]string{"gender": "F"}, http.StatusOK, 1},
		{"filter by age range", map[string]string{"age_min": "22", "age_max": "22"}, http.StatusOK, 3},
		{"pagination", map[string]string{"page": "1", "limit": "2"}, http.StatusOK, 2},
		{"sorted by age desc", map[string]string{"sort_by": "age", "sort_order": "desc"}, http.StatusOK, 5},
		{"unknown sort column", map[string]string{"sort_by": "salary"}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/records", nil)
			q := req.URL.Query()
			for key, value := range tt.queryParams {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

			data := response["data"].([]interface{})
			assert.Len(t, data, tt.expectedLen)
			assert.Contains(t, response, "total")
			assert.Contains(t, response, "totalPages")
		})
	}
}

func TestGetRecord(t *testing.T) {
	_, router := newRecordAPI(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/records/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var rec model.Record
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
	assert.Equal(t, "Jay Mondal", rec.Name)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/records/42", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Matches the route pattern but overflows int64.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/records/99999999999999999999", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRecord(t *testing.T) {
	svc, router := newRecordAPI(t)

	body := `{"id":10,"name":"Mina Roy","age":25,"gender":"F"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/records", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	got, err := svc.Get(10)
	require.NoError(t, err)
	assert.Equal(t, "Mina Roy", got.Name)

	// Duplicate id conflicts.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/records", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/records", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateRecord(t *testing.T) {
	svc, router := newRecordAPI(t)

	patch := func(id, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("PATCH", "/records/"+id, strings.NewReader(body)))
		return rr
	}

	rr := patch("1", `{"column":"age","value":23}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var rec model.Record
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
	assert.Equal(t, 23, rec.Age)

	got, err := svc.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 23, got.Age)

	assert.Equal(t, http.StatusBadRequest, patch("1", `{"column":"salary","value":10}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch("1", `{"value":10}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch("1", `{"column":"age","value":"old"}`).Code)
	assert.Equal(t, http.StatusNotFound, patch("42", `{"column":"age","value":23}`).Code)
}

func TestDeleteRecord(t *testing.T) {
	svc, router := newRecordAPI(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/records/5", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	_, err := svc.Get(5)
	assert.ErrorIs(t, err, database.ErrNotFound)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/records/5", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdjustAgesEndpoint(t *testing.T) {
	svc, router := newRecordAPI(t)

	body := bytes.NewReader([]byte(`{"delta":1}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/records/ages", body))
	require.Equal(t, http.StatusOK, rr.Code)

	got, err := svc.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 22, got.Age)
}
