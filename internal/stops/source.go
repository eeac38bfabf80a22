package stops

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

// Source loads the full stop list
type Source interface {
	Stops(ctx context.Context) ([]models.Stop, error)
}

// APISource reads stops from the backend's /api/stops
type APISource struct {
	fetcher api.StopFetcher
}

func NewAPISource(fetcher api.StopFetcher) *APISource {
	return &APISource{fetcher: fetcher}
}

func (s *APISource) Stops(ctx context.Context) ([]models.Stop, error) {
	return s.fetcher.GetStops(ctx)
}

const allStopsKey = "stops:all"

// CachedSource memoises the stop list; stops are immutable once loaded.
// Failed loads are not cached.
type CachedSource struct {
	next   Source
	cache  *cache.Cache
	logger logger.Logger
}

func NewCachedSource(next Source, ttl time.Duration, logger logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &CachedSource{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (s *CachedSource) Stops(ctx context.Context) ([]models.Stop, error) {
	if cached, ok := s.cache.Get(allStopsKey); ok {
		return cached.([]models.Stop), nil
	}

	loaded, err := s.next.Stops(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(allStopsKey, loaded)
	s.logger.Debug("Stop list cached", "count", len(loaded))
	return loaded, nil
}

// ForRoute returns the stops of one route ordered by id
func ForRoute(all []models.Stop, route string) []models.Stop {
	var out []models.Stop
	for _, stop := range all {
		if stop.RouteName == route {
			out = append(out, stop)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Routes returns the distinct route names, sorted
func Routes(all []models.Stop) []string {
	seen := make(map[string]struct{})
	var routes []string
	for _, stop := range all {
		if _, ok := seen[stop.RouteName]; ok {
			continue
		}
		seen[stop.RouteName] = struct{}{}
		routes = append(routes, stop.RouteName)
	}
	sort.Strings(routes)
	return routes
}

// Refresh reloads the stop list from the underlying source. The cached list
// is replaced only when the reload succeeds.
func (s *CachedSource) Refresh(ctx context.Context) error {
	loaded, err := s.next.Stops(ctx)
	if err != nil {
		return err
	}
	s.cache.SetDefault(allStopsKey, loaded)
	return nil
}
