package stops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passengerflow-console/internal/common/logger"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

type countingSource struct {
	calls int
	stops []models.Stop
	err   error
}

func (c *countingSource) Stops(ctx context.Context) ([]models.Stop, error) {
	c.calls++
	return c.stops, c.err
}

var sample = []models.Stop{
	{ID: 5, Name: "Depot", RouteName: "12"},
	{ID: 1, Name: "Market", RouteName: "12"},
	{ID: 3, Name: "Harbour", RouteName: "7"},
	{ID: 2, Name: "Station", RouteName: "12"},
}

func TestCachedSourceMemoises(t *testing.T) {
	next := &countingSource{stops: sample}
	src := NewCachedSource(next, time.Minute, logger.Nop())

	for i := 0; i < 3; i++ {
		got, err := src.Stops(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 4)
	}
	assert.Equal(t, 1, next.calls)

	require.NoError(t, src.Refresh(context.Background()))
	_, err := src.Stops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "refresh reloads once, reads stay cached")
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	next := &countingSource{err: errors.New("down")}
	src := NewCachedSource(next, time.Minute, logger.Nop())

	_, err := src.Stops(context.Background())
	assert.Error(t, err)

	next.err = nil
	next.stops = sample
	got, err := src.Stops(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 2, next.calls)
}

func TestForRouteFiltersAndSortsByID(t *testing.T) {
	got := ForRoute(sample, "12")
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 2, 5}, []int64{got[0].ID, got[1].ID, got[2].ID})

	assert.Empty(t, ForRoute(sample, "99"))
}

func TestRoutes(t *testing.T) {
	assert.Equal(t, []string{"12", "7"}, Routes(sample))
	assert.Empty(t, Routes(nil))
}
