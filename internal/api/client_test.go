package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger.Nop())
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "/api"}, logger.Nop())
	assert.Error(t, err)
}

func TestGetStops(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stops", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":2,"name":"Market","routeName":"12","lat":55.75,"lon":37.61}]`))
	}))

	stops, err := c.GetStops(context.Background())
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, models.Stop{ID: 2, Name: "Market", RouteName: "12", Lat: 55.75, Lon: 37.61}, stops[0])
}

func TestGetPredictions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predictions", r.URL.Path)
		assert.Equal(t, "12 A", r.URL.Query().Get("route"))
		assert.Equal(t, "false", r.URL.Query().Get("useWeather"))
		w.Write([]byte(`[
			{"stopName":"Market","time":"08:00","occupancyPercentage":63.5},
			{"stopName":"Depot","time":"09:00:00","occupancyPercentage":null}
		]`))
	}))

	preds, err := c.GetPredictions(context.Background(), "12 A", false)
	require.NoError(t, err)
	require.Len(t, preds, 2)

	assert.Equal(t, 8, preds[0].Time.Hour)
	require.NotNil(t, preds[0].OccupancyPercentage)
	assert.InDelta(t, 63.5, *preds[0].OccupancyPercentage, 1e-9)

	assert.Equal(t, 9, preds[1].Time.Hour)
	assert.Nil(t, preds[1].OccupancyPercentage)
}

func TestStatusErrorUsesBackendMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":404,"error":"Not Found","message":"Record 99 does not exist"}`))
	}))

	err := c.DeleteRecord(context.Background(), 99)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Record 99 does not exist", statusErr.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestStatusErrorFallsBackToCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.GetStops(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "HTTP 502", statusErr.Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL}, logger.Nop())
	require.NoError(t, err)

	_, err = c.GetStops(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestDownloadReport(t *testing.T) {
	pdf := []byte("%PDF-1.7 fake")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/heatmap", r.URL.Path)
		assert.Equal(t, "Bearer operator-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="heatmap_12_2026-10-19.pdf"`)
		w.Write(pdf)
	}))

	var buf bytes.Buffer
	ctx := WithToken(context.Background(), "operator-token")
	report, err := c.DownloadReport(ctx, ReportRequest{Route: "12", UseWeather: true}, &buf)
	require.NoError(t, err)

	assert.Equal(t, "heatmap_12_2026-10-19.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.Equal(t, int64(len(pdf)), report.Size)
	assert.Equal(t, pdf, buf.Bytes())
}

func TestDownloadReportUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.DownloadReport(context.Background(), ReportRequest{Route: "12", Format: ReportExcel}, io.Discard)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestDownloadReportToFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/heatmap/excel", r.URL.Path)
		w.Write([]byte("xlsx-bytes"))
	}))

	dir := t.TempDir()
	path, err := c.DownloadReportToFile(context.Background(), ReportRequest{Route: "12/A", Format: ReportExcel}, dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^heatmap_12_A_\d{4}-\d{2}-\d{2}\.xlsx$`, filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")
}

func TestListRecordsSendsFilters(t *testing.T) {
	start := time.Date(2026, 10, 1, 6, 0, 0, 0, time.Local)
	busID := int64(3)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("size"))
		assert.Equal(t, "3", q.Get("busId"))
		assert.False(t, q.Has("stopId"))
		assert.Equal(t, "2026-10-01T06:00:00", q.Get("startTime"))
		w.Write([]byte(`{"content":[{"id":7,"busId":3,"stopId":1,"entered":4,"exited":1,"timestamp":"2026-10-01T07:15:00"}],
			"number":2,"size":50,"totalElements":101,"totalPages":3}`))
	}))

	page, err := c.ListRecords(context.Background(), 2, 50, RecordFilter{BusID: &busID, StartTime: &start})
	require.NoError(t, err)
	assert.Equal(t, int64(101), page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, 7, page.Content[0].Timestamp.Hour())
}

func TestCreateAndUpdateRecord(t *testing.T) {
	var methods []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-10-01T07:15:00", body["timestamp"])
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}))

	ts, err := models.ParseLocalDateTime("2026-10-01T07:15", time.Local)
	require.NoError(t, err)
	rec := models.PassengerCount{BusID: 1, StopID: 2, Entered: 3, Exited: 0, Timestamp: ts}

	_, err = c.CreateRecord(context.Background(), rec)
	require.NoError(t, err)
	_, err = c.UpdateRecord(context.Background(), 5, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /api/passengers", "PUT /api/passengers/5"}, methods)
}

func TestParseReportFormat(t *testing.T) {
	f, err := ParseReportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ReportPDF, f)

	f, err = ParseReportFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, ReportExcel, f)

	_, err = ParseReportFormat("docx")
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Record 99 does not exist", Message(fmt.Errorf("deleting: %w", &StatusError{StatusCode: 404, Message: "Record 99 does not exist"})))
	assert.Equal(t, "authorization required", Message(&StatusError{StatusCode: 401, Message: "HTTP 401"}))
	assert.Equal(t, "dial tcp: refused", Message(errors.New("dial tcp: refused")))
}

func TestProgressWriterCountsAndLogs(t *testing.T) {
	var logs, dst bytes.Buffer
	pw := &progressWriter{
		w:      &dst,
		total:  10,
		logger: logger.NewWithWriters(logger.ParseLogLevel("debug"), &logs),
	}

	n, err := io.Copy(pw, bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, int64(10), pw.written)
	assert.Equal(t, "0123456789", dst.String())
	assert.Contains(t, logs.String(), "Report download progress")

	// unknown length: nothing to report a percentage of
	logs.Reset()
	quiet := &progressWriter{w: io.Discard, logger: logger.NewWithWriters(logger.ParseLogLevel("debug"), &logs)}
	_, err = io.Copy(quiet, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, int64(3), quiet.written)
	assert.Empty(t, logs.String())
}
