package geo

import (
	"fmt"
	"math"
	"strconv"
)

// bend is the control-point offset as a fraction of the chord length
const bend = 0.15

// Edge is a quadratic bezier between two consecutive stops
type Edge struct {
	From    Point
	To      Point
	Control Point
	// Mid is the chord midpoint, where the direction marker sits
	Mid Point
	// Angle is the chord direction in degrees, atan2(dy, dx)
	Angle float64
	// Straight is set for coincident endpoints
	Straight bool
}

// Curve bends the edge a->b to the left of travel direction by 15% of the
// chord length.
func Curve(a, b Point) Edge {
	dx := b.X - a.X
	dy := b.Y - a.Y
	mid := Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	e := Edge{From: a, To: b, Mid: mid, Control: mid}

	dist := math.Hypot(dx, dy)
	if dist == 0 {
		e.Straight = true
		return e
	}

	offset := dist * bend
	e.Control = Point{
		X: mid.X + (-dy/dist)*offset,
		Y: mid.Y + (dx/dist)*offset,
	}
	e.Angle = math.Atan2(dy, dx) * 180 / math.Pi
	return e
}

// Path is the SVG path descriptor of the edge
func (e Edge) Path() string {
	if e.Straight {
		return fmt.Sprintf("M %s %s L %s %s", num(e.From.X), num(e.From.Y), num(e.To.X), num(e.To.Y))
	}
	return fmt.Sprintf("M %s %s Q %s %s %s %s",
		num(e.From.X), num(e.From.Y),
		num(e.Control.X), num(e.Control.Y),
		num(e.To.X), num(e.To.Y))
}

// At evaluates the curve at t in [0,1]
func (e Edge) At(t float64) Point {
	if e.Straight {
		return e.From
	}
	u := 1 - t
	return Point{
		X: u*u*e.From.X + 2*u*t*e.Control.X + t*t*e.To.X,
		Y: u*u*e.From.Y + 2*u*t*e.Control.Y + t*t*e.To.Y,
	}
}

// Edges connects consecutive points. A cyclic route also gets the closing
// edge from the last point back to the first, so n >= 2 points yield n edges.
// A single point has no edges.
func Edges(points []Point, cyclic bool) []Edge {
	if len(points) < 2 {
		return nil
	}

	edges := make([]Edge, 0, len(points))
	for i := 0; i+1 < len(points); i++ {
		edges = append(edges, Curve(points[i], points[i+1]))
	}
	if cyclic {
		edges = append(edges, Curve(points[len(points)-1], points[0]))
	}
	return edges
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
