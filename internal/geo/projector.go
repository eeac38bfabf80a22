// Package geo maps stop coordinates onto a drawing canvas and builds the
// curved edges between consecutive stops.
package geo

import (
	"math"

	"github.com/passengerflow-console/pkg/passengerflow/models"
)

// fill leaves a 10% band inside the margins so nodes are never clipped
const fill = 0.9

type Margin struct {
	Top, Right, Bottom, Left float64
}

// Canvas is the drawable surface, in pixels
type Canvas struct {
	Width  float64
	Height float64
	Margin Margin
}

func DefaultCanvas() Canvas {
	return Canvas{
		Width:  1000,
		Height: 600,
		Margin: Margin{Top: 40, Right: 100, Bottom: 40, Left: 100},
	}
}

func (c Canvas) availableWidth() float64  { return c.Width - c.Margin.Left - c.Margin.Right }
func (c Canvas) availableHeight() float64 { return c.Height - c.Margin.Top - c.Margin.Bottom }

type Point struct {
	X float64
	Y float64
}

// ProjectedStop is a stop with its canvas position
type ProjectedStop struct {
	models.Stop
	Point
}

type bounds struct {
	minLat, maxLat float64
	minLon, maxLon float64
}

func boundsOf(stops []models.Stop) bounds {
	b := bounds{
		minLat: math.Inf(1), maxLat: math.Inf(-1),
		minLon: math.Inf(1), maxLon: math.Inf(-1),
	}
	for _, s := range stops {
		b.minLat = math.Min(b.minLat, s.Lat)
		b.maxLat = math.Max(b.maxLat, s.Lat)
		b.minLon = math.Min(b.minLon, s.Lon)
		b.maxLon = math.Max(b.maxLon, s.Lon)
	}
	return b
}

// Project places stops on the canvas with one uniform scale for both axes,
// centred inside the margins. Longitude grows to the right and latitude
// grows upwards. Order is preserved; an empty input yields nil.
func Project(stops []models.Stop, canvas Canvas) []ProjectedStop {
	if len(stops) == 0 {
		return nil
	}

	b := boundsOf(stops)
	latRange := b.maxLat - b.minLat
	flatLat := latRange == 0
	if flatLat {
		latRange = 1
	}
	lonRange := b.maxLon - b.minLon
	flatLon := lonRange == 0
	if flatLon {
		lonRange = 1
	}

	availW := canvas.availableWidth()
	availH := canvas.availableHeight()
	scale := math.Min(availW/lonRange, availH/latRange) * fill

	offX := (availW - lonRange*scale) / 2
	offY := (availH - latRange*scale) / 2

	out := make([]ProjectedStop, len(stops))
	for i, s := range stops {
		p := Point{
			X: canvas.Margin.Left + (s.Lon-b.minLon)*scale + offX,
			Y: canvas.Margin.Top + (b.maxLat-s.Lat)*scale + offY,
		}
		// a zero-width axis has nothing to spread; put it mid-canvas
		if flatLon {
			p.X = canvas.Margin.Left + availW/2
		}
		if flatLat {
			p.Y = canvas.Margin.Top + availH/2
		}
		out[i] = ProjectedStop{Stop: s, Point: p}
	}
	return out
}

// Points returns just the canvas positions, in order
func Points(projected []ProjectedStop) []Point {
	out := make([]Point, len(projected))
	for i, p := range projected {
		out[i] = p.Point
	}
	return out
}
