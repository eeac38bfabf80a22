package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/heatmap"
)

// HeatmapHandler serves the route occupancy heatmap
type HeatmapHandler struct {
	ctrl     *heatmap.Controller
	pngScale int
}

func NewHeatmapHandler(ctrl *heatmap.Controller, pngScale int) *HeatmapHandler {
	return &HeatmapHandler{ctrl: ctrl, pngScale: pngScale}
}

type RoutesResponse struct {
	Routes []string `json:"routes"`
	Count  int      `json:"count"`
}

type SelectRouteRequest struct {
	Route      string `json:"route"`
	UseWeather *bool  `json:"useWeather,omitempty"`
}

type SetHourRequest struct {
	Hour int `json:"hour"`
}

// GetRoutes handles GET /heatmap/routes
func (h *HeatmapHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.ctrl.Routes(r.Context())
	if err != nil {
		writeBackendError(w, "Failed to load stops", err)
		return
	}
	writeJSON(w, http.StatusOK, RoutesResponse{Routes: routes, Count: len(routes)})
}

// SelectRoute handles POST /heatmap/route
func (h *HeatmapHandler) SelectRoute(w http.ResponseWriter, r *http.Request) {
	var req SelectRouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{"internal": err.Error()})
		return
	}
	if req.UseWeather != nil {
		h.ctrl.SetUseWeather(*req.UseWeather)
	}

	err := h.ctrl.SelectRoute(r.Context(), req.Route)
	switch {
	case errors.Is(err, heatmap.ErrSuperseded):
		writeError(w, http.StatusConflict, "Route selection superseded by a newer one", nil)
		return
	case err != nil:
		writeBackendError(w, "Failed to load route", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

// SetHour handles POST /heatmap/hour
func (h *HeatmapHandler) SetHour(w http.ResponseWriter, r *http.Request) {
	var req SetHourRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{"internal": err.Error()})
		return
	}
	if err := h.ctrl.SetHour(req.Hour); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

// ClearRoute handles DELETE /heatmap/route
func (h *HeatmapHandler) ClearRoute(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Clear()
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

// GetState handles GET /heatmap/state
func (h *HeatmapHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.View())
}

// GetMapSVG handles GET /heatmap/map.svg
func (h *HeatmapHandler) GetMapSVG(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.ctrl.Scene()
	if !ok {
		writeError(w, http.StatusNotFound, heatmap.ErrNoRoute.Error(), nil)
		return
	}

	var buf bytes.Buffer
	if err := heatmap.RenderSVG(&buf, scene); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render map", nil)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// GetMapPNG handles GET /heatmap/map.png
func (h *HeatmapHandler) GetMapPNG(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.ctrl.Scene()
	if !ok {
		writeError(w, http.StatusNotFound, heatmap.ErrNoRoute.Error(), nil)
		return
	}

	scale := h.pngScale
	if s := r.URL.Query().Get("scale"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > heatmap.MaxSupersample {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("scale must be between 1 and %d", heatmap.MaxSupersample), nil)
			return
		}
		scale = v
	}

	var buf bytes.Buffer
	if err := heatmap.RenderPNG(&buf, scene, scale); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render map", map[string]interface{}{"internal": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// GetTable handles GET /heatmap/table; ?format=json returns the grid as JSON
func (h *HeatmapHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, ok := h.ctrl.Table()
	if !ok {
		writeError(w, http.StatusNotFound, heatmap.ErrNoRoute.Error(), nil)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, table)
		return
	}

	var buf bytes.Buffer
	if err := heatmap.RenderTableHTML(&buf, table); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render table", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// GetReport handles GET /heatmap/report?format=pdf|excel
func (h *HeatmapHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	format, err := api.ParseReportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var buf bytes.Buffer
	report, err := h.ctrl.DownloadReport(r.Context(), format, &buf)
	if errors.Is(err, heatmap.ErrNoRoute) {
		writeError(w, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		writeBackendError(w, "Failed to download report", err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
