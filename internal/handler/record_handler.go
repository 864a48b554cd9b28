package handler

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"recordstore/internal/model"
	"recordstore/internal/service"
)

type RecordHandler struct {
	recordService *service.RecordService
}

func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// ListRecords returns a filtered, sorted page of records.
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	ageMin, _ := strconv.Atoi(query.Get("age_min"))
	ageMax, _ := strconv.Atoi(query.Get("age_max"))

	params := service.ListParams{
		Page:      page,
		Limit:     limit,
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Name:      query.Get("name"),
		Gender:    query.Get("gender"),
		AgeMin:    ageMin,
		AgeMax:    ageMax,
	}

	records, totalCount, totalPages, err := h.recordService.List(params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       records,
		"page":       page,
		"limit":      limit,
		"total":      totalCount,
		"totalPages": totalPages,
	})
}

// GetRecord returns one record by id.
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid record id")
		return
	}

	rec, err := h.recordService.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord inserts a record from the JSON body.
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.recordService.Create(&rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord sets one column of a record from a {"column","value"}
// body and returns the updated record.
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid record id")
		return
	}

	var body struct {
		Column string      `json:"column"`
		Value  interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if body.Column == "" {
		writeBadRequest(w, "column is required")
		return
	}

	rec, err := h.recordService.UpdateColumn(id, body.Column, body.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord removes one record by id.
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid record id")
		return
	}

	if err := h.recordService.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustAges shifts every record's age by the delta in the body.
func (h *RecordHandler) AdjustAges(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.recordService.AdjustAges(body.Delta); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"delta": body.Delta})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}
