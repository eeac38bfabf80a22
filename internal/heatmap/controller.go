package heatmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/internal/common/notify"
	"github.com/passengerflow-console/internal/stops"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const DefaultHour = 12

var (
	ErrInvalidHour = errors.New("hour must be between 0 and 23")
	ErrNoRoute     = errors.New("no route selected")
	// ErrSuperseded is returned to a route selection that a newer one replaced
	ErrSuperseded = errors.New("route selection superseded")
)

type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateRendered:
		return "rendered"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type ControllerConfig struct {
	Map        Options
	TableFrom  int
	TableTo    int
	UseWeather bool
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Map:        DefaultOptions(),
		TableFrom:  TableFromHour,
		TableTo:    TableToHour,
		UseWeather: true,
	}
}

// View is a read-only snapshot of the controller
type View struct {
	State       string `json:"state"`
	Route       string `json:"route,omitempty"`
	Hour        int    `json:"hour"`
	UseWeather  bool   `json:"useWeather"`
	Stops       int    `json:"stops"`
	Predictions int    `json:"predictions"`
	Title       string `json:"title,omitempty"`
}

// Controller holds the operator's route and hour selection and the frame
// rendered from it. Route changes are sequenced: a newer selection cancels
// the older one's requests and any late result is discarded.
type Controller struct {
	mu sync.Mutex

	stops       stops.Source
	predictions api.PredictionFetcher
	reports     api.ReportDownloader
	toasts      *notify.Center
	cfg         ControllerConfig
	logger      logger.Logger

	state      State
	route      string
	hour       int
	useWeather bool
	routeStops []models.Stop
	index      *PredictionIndex
	scene      *Scene
	table      *Table

	generation uint64
	cancel     context.CancelFunc
}

func NewController(
	source stops.Source,
	predictions api.PredictionFetcher,
	reports api.ReportDownloader,
	toasts *notify.Center,
	cfg ControllerConfig,
	logger logger.Logger,
) *Controller {
	return &Controller{
		stops:       source,
		predictions: predictions,
		reports:     reports,
		toasts:      toasts,
		cfg:         cfg,
		logger:      logger.With("component", "heatmap"),
		hour:        DefaultHour,
		useWeather:  cfg.UseWeather,
	}
}

// Routes lists every route that has stops
func (c *Controller) Routes(ctx context.Context) ([]string, error) {
	all, err := c.stops.Stops(ctx)
	if err != nil {
		c.logger.Error("Failed to load stops", "error", err)
		c.toasts.Error("Failed to load stops: " + api.Message(err))
		return nil, err
	}
	return stops.Routes(all), nil
}

// SelectRoute loads a route's stops and predictions and renders it at the
// current hour. An empty route clears the selection. On failure the previous
// frame is kept.
func (c *Controller) SelectRoute(ctx context.Context, route string) error {
	if route == "" {
		c.Clear()
		return nil
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	useWeather := c.useWeather
	c.mu.Unlock()
	defer cancel()

	routeStops, predictions, err := c.fetch(reqCtx, route, useWeather)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("Discarding stale route result", "route", route, "generation", gen)
		return ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		return err
	}

	c.route = route
	c.routeStops = routeStops
	c.index = NewPredictionIndex(predictions)
	c.state = StateLoaded
	table := BuildTable(route, routeStops, c.index, c.cfg.TableFrom, c.cfg.TableTo)
	c.table = &table
	c.renderLocked()

	c.logger.Info("Route loaded",
		"route", route,
		"stops", len(routeStops),
		"predictions", len(predictions),
		"use_weather", useWeather)

	switch {
	case len(routeStops) == 0:
		c.toasts.Warning("Route " + route + " has no stops")
	case len(predictions) == 0:
		c.toasts.Warning("No predictions for route " + route)
	}
	return nil
}

func (c *Controller) fetch(ctx context.Context, route string, useWeather bool) ([]models.Stop, []models.Prediction, error) {
	all, err := c.stops.Stops(ctx)
	if err != nil {
		c.fail(ctx, "Failed to load stops", route, err)
		return nil, nil, fmt.Errorf("loading stops: %w", err)
	}
	routeStops := stops.ForRoute(all, route)

	predictions, err := c.predictions.GetPredictions(ctx, route, useWeather)
	if err != nil {
		c.fail(ctx, "Failed to load predictions for route "+route, route, err)
		return nil, nil, err
	}
	return routeStops, predictions, nil
}

// fail reports a fetch error unless the request was cancelled by a newer selection
func (c *Controller) fail(ctx context.Context, what, route string, err error) {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Error(what, "route", route, "error", err)
	c.toasts.Error(what + ": " + api.Message(err))
}

// SetHour changes the displayed hour and re-renders from the loaded data
func (c *Controller) SetHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hour = hour
	if c.state != StateEmpty {
		c.renderLocked()
	}
	return nil
}

// SetUseWeather toggles weather-adjusted predictions for the next load
func (c *Controller) SetUseWeather(useWeather bool) {
	c.mu.Lock()
	c.useWeather = useWeather
	c.mu.Unlock()
}

// Clear drops the selection and cancels any load in flight
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.state = StateEmpty
	c.route = ""
	c.routeStops = nil
	c.index = nil
	c.scene = nil
	c.table = nil
}

func (c *Controller) renderLocked() {
	scene := BuildMapScene(c.route, c.hour, c.routeStops, c.index, c.cfg.Map)
	c.scene = &scene
	c.state = StateRendered
}

// Scene returns the current frame; ok is false in the empty state
func (c *Controller) Scene() (Scene, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scene == nil {
		return Scene{}, false
	}
	return *c.scene, true
}

func (c *Controller) Table() (Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table == nil {
		return Table{}, false
	}
	return *c.table, true
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:       c.state.String(),
		Route:       c.route,
		Hour:        c.hour,
		UseWeather:  c.useWeather,
		Stops:       len(c.routeStops),
		Predictions: c.index.Len(),
	}
	if c.scene != nil {
		v.Title = c.scene.Title
	}
	return v
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DownloadReport streams the backend report for the selected route into w
func (c *Controller) DownloadReport(ctx context.Context, format api.ReportFormat, w io.Writer) (*api.Report, error) {
	c.mu.Lock()
	route, useWeather := c.route, c.useWeather
	c.mu.Unlock()

	if route == "" {
		return nil, ErrNoRoute
	}

	report, err := c.reports.DownloadReport(ctx, api.ReportRequest{Route: route, UseWeather: useWeather, Format: format}, w)
	if err != nil {
		c.logger.Error("Failed to download report", "route", route, "format", format, "error", err)
		c.toasts.Error("Failed to download report: " + api.Message(err))
		return nil, err
	}
	c.toasts.Info("Report " + report.Filename + " downloaded")
	return report, nil
}
