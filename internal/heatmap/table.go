package heatmap

import (
	"fmt"
	"html/template"
	"io"

	"github.com/passengerflow-console/internal/occupancy"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const (
	TableFromHour = 6
	TableToHour   = 18
)

type Cell struct {
	Hour       int
	Occupancy  *float64
	Band       occupancy.Band
	Label      string
	Background string
	TextColor  string
}

type Row struct {
	Stop  models.Stop
	Cells []Cell
}

// Table is the grid alternative to the map: one row per stop, one column per hour
type Table struct {
	Route string
	Hours []int
	Rows  []Row
}

// BuildTable covers the hours from..to inclusive
func BuildTable(route string, stops []models.Stop, index *PredictionIndex, from, to int) Table {
	t := Table{Route: route}
	for h := from; h <= to; h++ {
		t.Hours = append(t.Hours, h)
	}

	t.Rows = make([]Row, 0, len(stops))
	for _, stop := range stops {
		row := Row{Stop: stop, Cells: make([]Cell, 0, len(t.Hours))}
		for _, h := range t.Hours {
			pct := index.Occupancy(stop.Name, h)
			band := occupancy.BandOf(pct)
			row.Cells = append(row.Cells, Cell{
				Hour:       h,
				Occupancy:  pct,
				Band:       band,
				Label:      occupancy.Format(pct),
				Background: occupancy.FillPalette.Band(band),
				TextColor:  occupancy.TextPalette.Band(band),
			})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"hour": func(h int) string { return fmt.Sprintf("%02d:00", h) },
	"css":  func(s string) template.CSS { return template.CSS(s) },
}).Parse(`<table class="heatmap-table" data-route="{{.Route}}">
  <thead>
    <tr><th>Stop</th>{{range .Hours}}<th>{{hour .}}</th>{{end}}</tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr data-stop-id="{{.Stop.ID}}"><th scope="row">{{.Stop.Name}}</th>
    {{- range .Cells}}<td class="band-{{.Band}}" style="border-left: 6px solid {{css .Background}}; color: {{css .TextColor}}">{{.Label}}</td>{{end}}</tr>
{{- end}}
  </tbody>
</table>
`))

// RenderTableHTML writes the table as an HTML fragment
func RenderTableHTML(w io.Writer, t Table) error {
	if err := tableTemplate.Execute(w, t); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}
