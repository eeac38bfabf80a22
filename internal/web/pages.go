package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/passengerflow-console/internal/occupancy"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type LegendEntry struct {
	Label string
	Range string
	Color string
}

type pageData struct {
	Title       string
	Hours       []int
	DefaultHour int
	Legend      []LegendEntry
	PageSize    int
}

func legend() []LegendEntry {
	ranges := []struct {
		band occupancy.Band
		text string
	}{
		{occupancy.Low, "< 50%"},
		{occupancy.Moderate, "50-80%"},
		{occupancy.High, "80-100%"},
		{occupancy.Severe, "100-120%"},
		{occupancy.Critical, "> 120%"},
		{occupancy.Unknown, "no data"},
	}
	out := make([]LegendEntry, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, LegendEntry{Label: r.band.String(), Range: r.text, Color: occupancy.FillPalette.Band(r.band)})
	}
	return out
}

func renderPage(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render page", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
