package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/internal/common/notify"
	"github.com/passengerflow-console/internal/heatmap"
	"github.com/passengerflow-console/internal/records"
)

// Deps are the services behind the router
type Deps struct {
	Heatmap        *heatmap.Controller
	Records        *records.Service
	Toasts         *notify.Center
	HealthChecks   []HealthCheck
	Location       *time.Location
	PNGScale       int
	AllowedOrigins []string
	StaticDir      string
	Logger         logger.Logger
}

func NewRouter(d Deps) http.Handler {
	heatmapHandler := NewHeatmapHandler(d.Heatmap, d.PNGScale)
	recordsHandler := NewRecordsHandler(d.Records, d.Location)
	toastHandler := NewToastHandler(d.Toasts)
	healthHandler := NewHealthHandler(d.HealthChecks)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(ForwardToken)

	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Healthz)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "heatmap.html", pageData{
			Title:       "Route occupancy heatmap",
			DefaultHour: heatmap.DefaultHour,
			Legend:      legend(),
		})
	})
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "records.html", pageData{
			Title:    "Passenger records",
			PageSize: records.DefaultPageSize,
		})
	})

	r.Route("/heatmap", func(r chi.Router) {
		r.Get("/routes", heatmapHandler.GetRoutes)
		r.Post("/route", heatmapHandler.SelectRoute)
		r.Delete("/route", heatmapHandler.ClearRoute)
		r.Post("/hour", heatmapHandler.SetHour)
		r.Get("/state", heatmapHandler.GetState)
		r.Get("/map.svg", heatmapHandler.GetMapSVG)
		r.Get("/map.png", heatmapHandler.GetMapPNG)
		r.Get("/table", heatmapHandler.GetTable)
		r.Get("/report", heatmapHandler.GetReport)
	})

	r.Route("/records", func(r chi.Router) {
		r.Get("/", recordsHandler.List)
		r.Post("/", recordsHandler.Create)
		r.Get("/reference", recordsHandler.Reference)
		r.Get("/{id}", recordsHandler.Get)
		r.Put("/{id}", recordsHandler.Update)
		r.Delete("/{id}", recordsHandler.Delete)
	})

	r.Get("/toasts", toastHandler.List)
	r.Delete("/toasts/{id}", toastHandler.Dismiss)

	if d.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))
	}

	return r
}
