package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

type ReportFormat string

const (
	ReportPDF   ReportFormat = "pdf"
	ReportExcel ReportFormat = "excel"
)

// ParseReportFormat accepts "pdf" (default when empty) and "excel"/"xlsx"
func ParseReportFormat(s string) (ReportFormat, error) {
	switch s {
	case "", "pdf":
		return ReportPDF, nil
	case "excel", "xlsx":
		return ReportExcel, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

func (f ReportFormat) path() string {
	if f == ReportExcel {
		return "/api/reports/heatmap/excel"
	}
	return "/api/reports/heatmap"
}

func (f ReportFormat) extension() string {
	if f == ReportExcel {
		return "xlsx"
	}
	return "pdf"
}

func (f ReportFormat) ContentType() string {
	if f == ReportExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

type ReportRequest struct {
	Route      string
	UseWeather bool
	Format     ReportFormat
}

// Report describes a downloaded heatmap report
type Report struct {
	Filename    string
	ContentType string
	Size        int64
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DefaultReportFilename mirrors the backend's naming: heatmap_<route>_<yyyy-mm-dd>.<ext>
func DefaultReportFilename(route string, format ReportFormat, day time.Time) string {
	return fmt.Sprintf("heatmap_%s_%s.%s",
		unsafeFilenameChars.ReplaceAllString(route, "_"),
		day.Format("2006-01-02"),
		format.extension())
}

func (c *Client) GetStops(ctx context.Context) ([]models.Stop, error) {
	var stops []models.Stop
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/api/stops", nil), nil, &stops); err != nil {
		return nil, fmt.Errorf("fetching stops: %w", err)
	}

	c.logger.Debug("Stops fetched", "count", len(stops))
	return stops, nil
}

func (c *Client) GetPredictions(ctx context.Context, route string, useWeather bool) ([]models.Prediction, error) {
	query := url.Values{}
	query.Set("route", route)
	query.Set("useWeather", strconv.FormatBool(useWeather))

	var predictions []models.Prediction
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/api/predictions", query), nil, &predictions); err != nil {
		return nil, fmt.Errorf("fetching predictions for route %s: %w", route, err)
	}

	c.logger.Debug("Predictions fetched", "route", route, "count", len(predictions))
	return predictions, nil
}

// DownloadReport streams the backend-generated report into w
func (c *Client) DownloadReport(ctx context.Context, rr ReportRequest, w io.Writer) (*Report, error) {
	if rr.Format == "" {
		rr.Format = ReportPDF
	}

	query := url.Values{}
	query.Set("route", rr.Route)
	query.Set("useWeather", strconv.FormatBool(rr.UseWeather))

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(rr.Format.path(), query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", rr.Format.ContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s report for route %s: %w", rr.Format, rr.Route, err)
	}
	defer resp.Body.Close()

	report := &Report{
		Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if report.Filename == "" {
		report.Filename = DefaultReportFilename(rr.Route, rr.Format, time.Now())
	}
	if report.ContentType == "" {
		report.ContentType = rr.Format.ContentType()
	}

	pw := &progressWriter{w: w, total: resp.ContentLength, lastLog: time.Now(), logger: c.logger}
	written, err := io.Copy(pw, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report body: %w", err)
	}
	report.Size = written

	c.logger.Info("Report downloaded",
		"route", rr.Route,
		"format", rr.Format,
		"filename", report.Filename,
		"size_bytes", written)

	return report, nil
}

// DownloadReportToFile saves the report into dir, writing through a temp
// file so a failed download never leaves a partial report behind.
func (c *Client) DownloadReportToFile(ctx context.Context, rr ReportRequest, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating destination directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "heatmap_report_*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	report, err := c.DownloadReport(ctx, rr, tempFile)
	tempFile.Close()
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(dir, filepath.Base(report.Filename))
	if err := os.Rename(tempPath, destPath); err != nil {
		return "", fmt.Errorf("moving report to destination: %w", err)
	}

	return destPath, nil
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// progressWriter counts bytes on their way to w and logs at most every
// progressEvery while a sized download is running
type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	lastLog time.Time
	logger  logger.Logger
}

const progressEvery = 5 * time.Second

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.total > 0 && time.Since(p.lastLog) > progressEvery {
		p.logger.Debug("Report download progress",
			"percent", fmt.Sprintf("%.1f", float64(p.written)/float64(p.total)*100),
			"bytes", p.written)
		p.lastLog = time.Now()
	}
	return n, err
}
