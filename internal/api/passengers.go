package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const passengersPath = "/api/passengers"

// RecordFilter narrows the records list; nil fields are not sent
type RecordFilter struct {
	BusID     *int64
	StopID    *int64
	StartTime *time.Time
	EndTime   *time.Time
}

func (f RecordFilter) apply(query url.Values) {
	if f.BusID != nil {
		query.Set("busId", strconv.FormatInt(*f.BusID, 10))
	}
	if f.StopID != nil {
		query.Set("stopId", strconv.FormatInt(*f.StopID, 10))
	}
	if f.StartTime != nil {
		query.Set("startTime", f.StartTime.Format("2006-01-02T15:04:05"))
	}
	if f.EndTime != nil {
		query.Set("endTime", f.EndTime.Format("2006-01-02T15:04:05"))
	}
}

func recordPath(id int64) string {
	return passengersPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListRecords(ctx context.Context, page, size int, filter RecordFilter) (*models.Page[models.PassengerCount], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	filter.apply(query)

	var result models.Page[models.PassengerCount]
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(passengersPath, query), nil, &result); err != nil {
		return nil, fmt.Errorf("listing passenger records: %w", err)
	}
	return &result, nil
}

func (c *Client) GetRecord(ctx context.Context, id int64) (*models.PassengerCount, error) {
	var rec models.PassengerCount
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(recordPath(id), nil), nil, &rec); err != nil {
		return nil, fmt.Errorf("fetching passenger record %d: %w", id, err)
	}
	return &rec, nil
}

func (c *Client) CreateRecord(ctx context.Context, rec models.PassengerCount) (*models.PassengerCount, error) {
	rec.ID = 0
	var created models.PassengerCount
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint(passengersPath, nil), rec, &created); err != nil {
		return nil, fmt.Errorf("creating passenger record: %w", err)
	}
	return &created, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id int64, rec models.PassengerCount) (*models.PassengerCount, error) {
	rec.ID = id
	var updated models.PassengerCount
	if err := c.doJSON(ctx, http.MethodPut, c.endpoint(recordPath(id), nil), rec, &updated); err != nil {
		return nil, fmt.Errorf("updating passenger record %d: %w", id, err)
	}
	return &updated, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint(recordPath(id), nil), nil, nil); err != nil {
		return fmt.Errorf("deleting passenger record %d: %w", id, err)
	}
	return nil
}

func (c *Client) GetBuses(ctx context.Context) ([]models.Bus, error) {
	var buses []models.Bus
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(passengersPath+"/buses", nil), nil, &buses); err != nil {
		return nil, fmt.Errorf("fetching buses: %w", err)
	}
	return buses, nil
}

func (c *Client) GetRecordStops(ctx context.Context) ([]models.Stop, error) {
	var stops []models.Stop
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint(passengersPath+"/stops", nil), nil, &stops); err != nil {
		return nil, fmt.Errorf("fetching stops for records: %w", err)
	}
	return stops, nil
}
