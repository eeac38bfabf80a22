package api

import (
	"context"
	"io"

	"github.com/passengerflow-console/pkg/passengerflow/models"
)

type StopFetcher interface {
	GetStops(ctx context.Context) ([]models.Stop, error)
}

type PredictionFetcher interface {
	GetPredictions(ctx context.Context, route string, useWeather bool) ([]models.Prediction, error)
}

type ReportDownloader interface {
	DownloadReport(ctx context.Context, req ReportRequest, w io.Writer) (*Report, error)
}

type RecordsClient interface {
	ListRecords(ctx context.Context, page, size int, filter RecordFilter) (*models.Page[models.PassengerCount], error)
	GetRecord(ctx context.Context, id int64) (*models.PassengerCount, error)
	CreateRecord(ctx context.Context, rec models.PassengerCount) (*models.PassengerCount, error)
	UpdateRecord(ctx context.Context, id int64, rec models.PassengerCount) (*models.PassengerCount, error)
	DeleteRecord(ctx context.Context, id int64) error
	GetBuses(ctx context.Context) ([]models.Bus, error)
	GetRecordStops(ctx context.Context) ([]models.Stop, error)
}

var (
	_ StopFetcher       = (*Client)(nil)
	_ PredictionFetcher = (*Client)(nil)
	_ ReportDownloader  = (*Client)(nil)
	_ RecordsClient     = (*Client)(nil)
)
