package heatmap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/internal/common/notify"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

type fakeStops struct {
	stops []models.Stop
	err   error
}

func (f *fakeStops) Stops(ctx context.Context) ([]models.Stop, error) {
	return f.stops, f.err
}

type fakePredictions struct {
	mu         sync.Mutex
	calls      int
	useWeather []bool
	byRoute    map[string][]models.Prediction
	err        error
	// block, when set, holds calls for the given route until ctx is done
	block string
}

func (f *fakePredictions) GetPredictions(ctx context.Context, route string, useWeather bool) ([]models.Prediction, error) {
	f.mu.Lock()
	f.calls++
	f.useWeather = append(f.useWeather, useWeather)
	block, err := f.block, f.err
	f.mu.Unlock()

	if route == block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return f.byRoute[route], nil
}

func (f *fakePredictions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReports struct {
	req api.ReportRequest
	err error
}

func (f *fakeReports) DownloadReport(ctx context.Context, req api.ReportRequest, w io.Writer) (*api.Report, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	n, _ := io.WriteString(w, "%PDF")
	return &api.Report{Filename: "heatmap_12.pdf", Size: int64(n)}, nil
}

func allStops() []models.Stop {
	return append(routeStops(),
		models.Stop{ID: 10, Name: "Harbour", RouteName: "7", Lat: 55.6, Lon: 37.4},
		models.Stop{ID: 11, Name: "Quay", RouteName: "7", Lat: 55.61, Lon: 37.41},
	)
}

type fixture struct {
	ctrl    *Controller
	stops   *fakeStops
	preds   *fakePredictions
	reports *fakeReports
	toasts  *notify.Center
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stops: &fakeStops{stops: allStops()},
		preds: &fakePredictions{byRoute: map[string][]models.Prediction{
			"12": {
				prediction("Depot", 8, pct(30)),
				prediction("Depot", 20, pct(125)),
				prediction("Market", 8, pct(85)),
			},
			"7": {prediction("Harbour", 12, pct(60))},
		}},
		reports: &fakeReports{},
		toasts:  notify.NewCenter(time.Minute, logger.Nop()),
	}
	t.Cleanup(f.toasts.Close)
	f.ctrl = NewController(f.stops, f.preds, f.reports, f.toasts, DefaultControllerConfig(), logger.Nop())
	return f
}

func depotFill(t *testing.T, scene Scene) string {
	t.Helper()
	for _, el := range scene.Elements {
		g, ok := el.(Group)
		if !ok {
			continue
		}
		for _, a := range g.Data {
			if a.Name == "stop-name" && a.Value == "Depot" {
				return g.Children[1].(Circle).Style.Fill
			}
		}
	}
	t.Fatal("Depot marker not found")
	return ""
}

func TestSelectRouteAndChangeHour(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateEmpty, f.ctrl.State())

	require.NoError(t, f.ctrl.SetHour(8))
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "12"))
	assert.Equal(t, StateRendered, f.ctrl.State())

	scene, ok := f.ctrl.Scene()
	require.True(t, ok)
	assert.Equal(t, 5, scene.Count("stop-node"))
	assert.Equal(t, 5, scene.Count("connection-line"))
	assert.Equal(t, "#4CAF50", depotFill(t, scene))
	assert.Equal(t, 1, f.preds.count())

	require.NoError(t, f.ctrl.SetHour(20))
	scene, _ = f.ctrl.Scene()
	assert.Equal(t, "Route 12 at 20:00", scene.Title)
	assert.Equal(t, "#B71C1C", depotFill(t, scene))
	assert.Equal(t, 1, f.preds.count(), "hour change must not refetch")

	view := f.ctrl.View()
	assert.Equal(t, View{State: "rendered", Route: "12", Hour: 20, UseWeather: true, Stops: 5, Predictions: 3, Title: "Route 12 at 20:00"}, view)

	table, ok := f.ctrl.Table()
	require.True(t, ok)
	assert.Len(t, table.Rows, 5)
}

func TestSetHourValidates(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.SetHour(24), ErrInvalidHour)
	assert.ErrorIs(t, f.ctrl.SetHour(-1), ErrInvalidHour)
	assert.Equal(t, DefaultHour, f.ctrl.View().Hour)

	require.NoError(t, f.ctrl.SetHour(0))
	assert.Equal(t, StateEmpty, f.ctrl.State(), "hour alone does not render")
}

func TestFailedLoadKeepsPreviousFrame(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "12"))

	f.preds.err = &api.StatusError{StatusCode: 500, Message: "model unavailable"}
	err := f.ctrl.SelectRoute(context.Background(), "7")
	require.Error(t, err)

	view := f.ctrl.View()
	assert.Equal(t, "12", view.Route)
	assert.Equal(t, "rendered", view.State)

	toasts := f.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.KindError, toasts[0].Kind)
	assert.Equal(t, "Failed to load predictions for route 7: model unavailable", toasts[0].Message)
}

func TestFailedStopsLoad(t *testing.T) {
	f := newFixture(t)
	f.stops.err = errors.New("connection refused")

	assert.Error(t, f.ctrl.SelectRoute(context.Background(), "12"))
	assert.Equal(t, StateEmpty, f.ctrl.State())
	assert.Equal(t, 0, f.preds.count())

	_, err := f.ctrl.Routes(context.Background())
	assert.Error(t, err)
	assert.Len(t, f.toasts.Active(), 2)
}

func TestEmptyRouteClears(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "12"))
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), ""))

	assert.Equal(t, StateEmpty, f.ctrl.State())
	_, ok := f.ctrl.Scene()
	assert.False(t, ok)
	_, ok = f.ctrl.Table()
	assert.False(t, ok)
}

func TestNewerSelectionSupersedesSlowOne(t *testing.T) {
	f := newFixture(t)
	f.preds.block = "12"

	done := make(chan error, 1)
	go func() {
		done <- f.ctrl.SelectRoute(context.Background(), "12")
	}()

	require.Eventually(t, func() bool { return f.preds.count() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "7"))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("stale selection was not cancelled")
	}

	assert.Equal(t, "7", f.ctrl.View().Route)
	assert.Empty(t, f.toasts.Active(), "cancelled load raises no toast")
}

func TestRouteWithoutDataWarns(t *testing.T) {
	f := newFixture(t)
	f.preds.byRoute["7"] = nil

	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "7"))
	assert.Equal(t, StateRendered, f.ctrl.State(), "markers still drawn in the unknown colour")

	toasts := f.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.KindWarning, toasts[0].Kind)
	assert.Equal(t, "No predictions for route 7", toasts[0].Message)

	f.toasts.Dismiss(toasts[0].ID)
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "99"))
	toasts = f.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Route 99 has no stops", toasts[0].Message)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)
	routes, err := f.ctrl.Routes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "7"}, routes)
}

func TestUseWeatherIsForwarded(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetUseWeather(false)
	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "12"))
	assert.Equal(t, []bool{false}, f.preds.useWeather)
}

func TestDownloadReport(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.DownloadReport(context.Background(), api.ReportPDF, io.Discard)
	assert.ErrorIs(t, err, ErrNoRoute)

	require.NoError(t, f.ctrl.SelectRoute(context.Background(), "12"))
	var buf bytes.Buffer
	report, err := f.ctrl.DownloadReport(context.Background(), api.ReportExcel, &buf)
	require.NoError(t, err)
	assert.Equal(t, "heatmap_12.pdf", report.Filename)
	assert.Equal(t, api.ReportRequest{Route: "12", UseWeather: true, Format: api.ReportExcel}, f.reports.req)

	toasts := f.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.KindInfo, toasts[0].Kind)
	assert.Equal(t, "Report heatmap_12.pdf downloaded", toasts[0].Message)
	f.toasts.Dismiss(toasts[0].ID)

	f.reports.err = &api.StatusError{StatusCode: 401, Message: "HTTP 401"}
	_, err = f.ctrl.DownloadReport(context.Background(), api.ReportPDF, &buf)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	toasts = f.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.KindError, toasts[0].Kind)
	assert.Equal(t, "Failed to download report: authorization required", toasts[0].Message)
}
