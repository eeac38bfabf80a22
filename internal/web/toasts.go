package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passengerflow-console/internal/common/notify"
)

type ToastHandler struct {
	center *notify.Center
}

func NewToastHandler(center *notify.Center) *ToastHandler {
	return &ToastHandler{center: center}
}

type ToastsResponse struct {
	Toasts []notify.Toast `json:"toasts"`
	Count  int            `json:"count"`
}

// List handles GET /toasts
func (h *ToastHandler) List(w http.ResponseWriter, r *http.Request) {
	toasts := h.center.Active()
	writeJSON(w, http.StatusOK, ToastsResponse{Toasts: toasts, Count: len(toasts)})
}

// Dismiss handles DELETE /toasts/{id}
func (h *ToastHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	if !h.center.Dismiss(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "Toast not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
