// Package records is the passenger count admin: a paged, filterable list of
// boarding/alighting records with create, edit and delete.
package records

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/internal/common/notify"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const DefaultPageSize = 20

// Session is the list position the operator is looking at
type Session struct {
	Page    int
	Size    int
	Filters api.RecordFilter
}

// View is one loaded page of records with its navigation bar
type View struct {
	Records    []models.PassengerCount `json:"records"`
	Pagination Pagination              `json:"pagination"`
	Empty      bool                    `json:"empty"`
}

// Reference holds the choices for the bus and stop selects
type Reference struct {
	Buses []models.Bus  `json:"buses"`
	Stops []models.Stop `json:"stops"`
}

type Service struct {
	mu sync.Mutex

	client    api.RecordsClient
	toasts    *notify.Center
	validator *Validator
	logger    logger.Logger

	session Session
	current *View
}

func NewService(client api.RecordsClient, toasts *notify.Center, validator *Validator, logger logger.Logger) *Service {
	return &Service{
		client:    client,
		toasts:    toasts,
		validator: validator,
		logger:    logger.With("component", "records"),
		session:   Session{Size: DefaultPageSize},
	}
}

func (s *Service) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Current returns the last successfully loaded page
func (s *Service) Current() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return View{}, false
	}
	return *s.current, true
}

// List loads a page. The session moves to the new page and filters only
// when the load succeeds.
func (s *Service) List(ctx context.Context, page, size int, filters api.RecordFilter) (*View, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	result, err := s.client.ListRecords(ctx, page, size, filters)
	if err != nil {
		s.logger.Error("Failed to load records", "page", page, "size", size, "error", err)
		s.toasts.Error("Failed to load data: " + api.Message(err))
		return nil, err
	}

	view := &View{
		Records:    result.Content,
		Pagination: Paginate(result.Number, result.Size, result.TotalPages, result.TotalElements),
		Empty:      len(result.Content) == 0,
	}

	s.mu.Lock()
	s.session = Session{Page: page, Size: size, Filters: filters}
	s.current = view
	s.mu.Unlock()

	return view, nil
}

// Reload fetches the session's current page again
func (s *Service) Reload(ctx context.Context) (*View, error) {
	sess := s.Session()
	return s.List(ctx, sess.Page, sess.Size, sess.Filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.PassengerCount, error) {
	rec, err := s.client.GetRecord(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load record", "record_id", id, "error", err)
		s.toasts.Error("Failed to load record: " + api.Message(err))
		return nil, err
	}
	return rec, nil
}

// Create validates the form, stores the record and reloads the current page
func (s *Service) Create(ctx context.Context, form Form) (*models.PassengerCount, error) {
	rec, err := s.validator.Check(form)
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateRecord(ctx, rec)
	if err != nil {
		s.saveFailed(err)
		return nil, err
	}

	s.logger.Info("Record created", "record_id", created.ID, "bus_id", rec.BusID, "stop_id", rec.StopID)
	s.toasts.Success("Record created")
	s.reloadAfterMutation(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, form Form) (*models.PassengerCount, error) {
	rec, err := s.validator.Check(form)
	if err != nil {
		return nil, err
	}

	updated, err := s.client.UpdateRecord(ctx, id, rec)
	if err != nil {
		s.saveFailed(err)
		return nil, err
	}

	s.logger.Info("Record updated", "record_id", id)
	s.toasts.Success("Record updated")
	s.reloadAfterMutation(ctx)
	return updated, nil
}

// Delete removes a record. On failure the loaded page is left as it was.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteRecord(ctx, id); err != nil {
		s.logger.Error("Failed to delete record", "record_id", id, "error", err)
		s.toasts.Error("Failed to delete record: " + api.Message(err))
		return err
	}

	s.logger.Info("Record deleted", "record_id", id)
	s.toasts.Success("Record deleted")
	s.reloadAfterMutation(ctx)
	return nil
}

func (s *Service) saveFailed(err error) {
	s.logger.Error("Failed to save record", "error", err)
	s.toasts.Error("Failed to save record: " + api.Message(err))
}

// reloadAfterMutation refreshes the page; its failure is already toasted
func (s *Service) reloadAfterMutation(ctx context.Context) {
	_, _ = s.Reload(ctx)
}

// Reference loads buses and stops concurrently
func (s *Service) Reference(ctx context.Context) (*Reference, error) {
	var (
		wg       sync.WaitGroup
		ref      Reference
		busErr   error
		stopsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ref.Buses, busErr = s.client.GetBuses(ctx)
	}()
	go func() {
		defer wg.Done()
		ref.Stops, stopsErr = s.client.GetRecordStops(ctx)
	}()
	wg.Wait()

	if err := errors.Join(busErr, stopsErr); err != nil {
		s.logger.Error("Failed to load reference data", "error", err)
		first := busErr
		if first == nil {
			first = stopsErr
		}
		s.toasts.Error("Failed to load reference data: " + api.Message(first))
		return nil, err
	}
	return &ref, nil
}

// ParseFilters reads busId, stopId, startTime and endTime from a query.
// Empty values are left unset.
func ParseFilters(q url.Values, loc *time.Location) (api.RecordFilter, error) {
	var f api.RecordFilter

	parseID := func(key string) (*int64, error) {
		v := q.Get(key)
		if v == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		return &id, nil
	}
	parseTime := func(key string) (*time.Time, error) {
		v := q.Get(key)
		if v == "" {
			return nil, nil
		}
		ts, err := models.ParseLocalDateTime(v, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		return &ts.Time, nil
	}

	var err error
	if f.BusID, err = parseID("busId"); err != nil {
		return f, err
	}
	if f.StopID, err = parseID("stopId"); err != nil {
		return f, err
	}
	if f.StartTime, err = parseTime("startTime"); err != nil {
		return f, err
	}
	if f.EndTime, err = parseTime("endTime"); err != nil {
		return f, err
	}
	return f, nil
}
