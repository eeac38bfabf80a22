package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveControlPoint(t *testing.T) {
	e := Curve(Point{0, 0}, Point{100, 0})

	assert.InDelta(t, 50, e.Control.X, 1e-9)
	assert.InDelta(t, 15, math.Abs(e.Control.Y), 1e-9)
	assert.Equal(t, Point{50, 0}, e.Mid)
	assert.InDelta(t, 0, e.Angle, 1e-9)
	assert.Equal(t, "M 0 0 Q 50 15 100 0", e.Path())
}

func TestCurveAngle(t *testing.T) {
	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"down", Point{0, 10}, 90},
		{"left", Point{-10, 0}, 180},
		{"up", Point{0, -10}, -90},
		{"diagonal", Point{10, 10}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Curve(Point{0, 0}, tt.to).Angle, 1e-9)
		})
	}
}

func TestCurveCoincidentPoints(t *testing.T) {
	e := Curve(Point{10, 20}, Point{10, 20})

	assert.True(t, e.Straight)
	assert.Equal(t, Point{10, 20}, e.Control)
	assert.False(t, math.IsNaN(e.Angle))
	assert.Equal(t, "M 10 20 L 10 20", e.Path())
}

func TestCurveOffsetScalesWithDistance(t *testing.T) {
	short := Curve(Point{0, 0}, Point{0, 40})
	long := Curve(Point{0, 0}, Point{0, 400})

	assert.InDelta(t, 6, math.Abs(short.Control.X), 1e-9)
	assert.InDelta(t, 60, math.Abs(long.Control.X), 1e-9)
}

func TestEdgeAtEndpoints(t *testing.T) {
	e := Curve(Point{0, 0}, Point{100, 0})
	assert.Equal(t, e.From, e.At(0))
	assert.Equal(t, e.To, e.At(1))
	assert.InDelta(t, 7.5, e.At(0.5).Y, 1e-9)
}

func TestEdges(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}}

	tests := []struct {
		name   string
		points []Point
		cyclic bool
		want   int
	}{
		{"empty", nil, true, 0},
		{"single stop", pts[:1], true, 0},
		{"two stops open", pts[:2], false, 1},
		{"two stops cyclic", pts[:2], true, 2},
		{"five stops open", pts, false, 4},
		{"five stops cyclic", pts, true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Edges(tt.points, tt.cyclic), tt.want)
		})
	}

	edges := Edges(pts, true)
	require.Len(t, edges, 5)
	assert.Equal(t, pts[4], edges[4].From)
	assert.Equal(t, pts[0], edges[4].To)
}
