package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/passengerflow-console/internal/records"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

// RecordsHandler serves the passenger count admin
type RecordsHandler struct {
	svc *records.Service
	loc *time.Location
}

func NewRecordsHandler(svc *records.Service, loc *time.Location) *RecordsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &RecordsHandler{svc: svc, loc: loc}
}

func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil && n >= 0
}

// List handles GET /records?page&size&busId&stopId&startTime&endTime.
// Without a page parameter the session's current page is reloaded.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("size") && !q.Has("busId") && !q.Has("stopId") && !q.Has("startTime") && !q.Has("endTime") {
		view, err := h.svc.Reload(r.Context())
		if err != nil {
			writeBackendError(w, "Failed to load records", err)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}

	page, ok := queryInt(r, "page", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "page must be a non-negative integer", nil)
		return
	}
	size, ok := queryInt(r, "size", h.svc.Session().Size)
	if !ok || size == 0 {
		writeError(w, http.StatusBadRequest, "size must be a positive integer", nil)
		return
	}
	filters, err := records.ParseFilters(q, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", map[string]interface{}{"internal": err.Error()})
		return
	}

	view, err := h.svc.List(r.Context(), page, size, filters)
	if err != nil {
		writeBackendError(w, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type RecordResponse struct {
	Record *models.PassengerCount `json:"record"`
	Form   records.Form           `json:"form"`
}

// Get handles GET /records/{id}; the response carries the prefilled form
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer", nil)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeBackendError(w, "Failed to load record", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordResponse{Record: rec, Form: records.FormFromRecord(*rec)})
}

// Create handles POST /records
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form records.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{"internal": err.Error()})
		return
	}

	created, err := h.svc.Create(r.Context(), form)
	if err != nil {
		writeBackendError(w, "Failed to save record", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /records/{id}
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer", nil)
		return
	}

	var form records.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{"internal": err.Error()})
		return
	}

	updated, err := h.svc.Update(r.Context(), id, form)
	if err != nil {
		writeBackendError(w, "Failed to save record", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /records/{id}
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer", nil)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeBackendError(w, "Failed to delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reference handles GET /records/reference
func (h *RecordsHandler) Reference(w http.ResponseWriter, r *http.Request) {
	ref, err := h.svc.Reference(r.Context())
	if err != nil {
		writeBackendError(w, "Failed to load reference data", err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}
