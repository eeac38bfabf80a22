package heatmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/passengerflow-console/internal/geo"
	"github.com/passengerflow-console/internal/occupancy"
	"github.com/passengerflow-console/pkg/passengerflow/models"
)

const (
	edgeColor  = "#607D8B"
	labelColor = "#333333"
	titleColor = "#333333"
	background = "#FFFFFF"
)

// Style is the paint of a primitive. Empty colours are not painted.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
}

func (s Style) opacity() float64 {
	if s.Opacity <= 0 {
		return 1
	}
	return s.Opacity
}

// Element is one scene primitive: Path, Circle, Text or Group
type Element interface {
	element()
}

type OpKind byte

const (
	MoveTo OpKind = 'M'
	LineTo OpKind = 'L'
	QuadTo OpKind = 'Q'
	Close  OpKind = 'Z'
)

// PathOp is one path command. QuadTo carries the control point then the end point.
type PathOp struct {
	Kind   OpKind
	Points []geo.Point
}

type Path struct {
	Class string
	Ops   []PathOp
	Style Style
}

type Circle struct {
	Class  string
	Center geo.Point
	R      float64
	Style  Style
}

type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
)

type Text struct {
	Class   string
	At      geo.Point
	Content string
	Size    float64
	Bold    bool
	Anchor  Anchor
	Fill    string
}

// Attr is a data attribute attached to a group
type Attr struct {
	Name  string
	Value string
}

type Group struct {
	Class    string
	Data     []Attr
	Children []Element
}

func (Path) element()   {}
func (Circle) element() {}
func (Text) element()   {}
func (Group) element()  {}

// D renders the path in SVG path syntax
func (p Path) D() string {
	var b strings.Builder
	for i, op := range p.Ops {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(op.Kind))
		for _, pt := range op.Points {
			b.WriteByte(' ')
			b.WriteString(formatNum(pt.X))
			b.WriteByte(' ')
			b.WriteString(formatNum(pt.Y))
		}
	}
	return b.String()
}

// Scene is a renderer-independent description of one heatmap frame
type Scene struct {
	Width      float64
	Height     float64
	Background string
	Title      string
	Elements   []Element
}

// Options controls map geometry
type Options struct {
	Canvas     geo.Canvas
	NodeRadius float64
	Cyclic     bool
}

func DefaultOptions() Options {
	return Options{
		Canvas:     geo.DefaultCanvas(),
		NodeRadius: 20,
		Cyclic:     true,
	}
}

// Title is the caption of the map for a route and hour
func Title(route string, hour int) string {
	return fmt.Sprintf("Route %s at %d:00", route, hour)
}

// BuildMapScene lays out one route at one hour: curved edges with direction
// markers first, then a marker per stop coloured by its occupancy, then the
// title on top.
func BuildMapScene(route string, hour int, stops []models.Stop, index *PredictionIndex, opts Options) Scene {
	scene := Scene{
		Width:      opts.Canvas.Width,
		Height:     opts.Canvas.Height,
		Background: background,
		Title:      Title(route, hour),
	}

	projected := geo.Project(stops, opts.Canvas)
	for _, e := range geo.Edges(geo.Points(projected), opts.Cyclic) {
		scene.Elements = append(scene.Elements, edgeElements(e)...)
	}
	for _, ps := range projected {
		scene.Elements = append(scene.Elements, stopMarker(ps, index.Occupancy(ps.Name, hour), opts.NodeRadius))
	}

	scene.Elements = append(scene.Elements, Text{
		Class:   "title",
		At:      geo.Point{X: opts.Canvas.Width / 2, Y: 24},
		Content: scene.Title,
		Size:    18,
		Bold:    true,
		Anchor:  AnchorMiddle,
		Fill:    titleColor,
	})
	return scene
}

func edgeElements(e geo.Edge) []Element {
	curve := Path{
		Class: "connection-line",
		Style: Style{Stroke: edgeColor, StrokeWidth: 3, Opacity: 0.8},
	}
	if e.Straight {
		curve.Ops = []PathOp{
			{Kind: MoveTo, Points: []geo.Point{e.From}},
			{Kind: LineTo, Points: []geo.Point{e.To}},
		}
		return []Element{curve}
	}
	curve.Ops = []PathOp{
		{Kind: MoveTo, Points: []geo.Point{e.From}},
		{Kind: QuadTo, Points: []geo.Point{e.Control, e.To}},
	}
	return []Element{curve, directionMarker(e.Mid, e.Angle)}
}

// directionMarker is a small triangle pointing along angle (degrees), centred on at
func directionMarker(at geo.Point, angle float64) Path {
	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	rotate := func(x, y float64) geo.Point {
		return geo.Point{
			X: at.X + x*cos - y*sin,
			Y: at.Y + x*sin + y*cos,
		}
	}
	return Path{
		Class: "direction-marker",
		Ops: []PathOp{
			{Kind: MoveTo, Points: []geo.Point{rotate(6, 0)}},
			{Kind: LineTo, Points: []geo.Point{rotate(-5, -5)}},
			{Kind: LineTo, Points: []geo.Point{rotate(-5, 5)}},
			{Kind: Close},
		},
		Style: Style{Fill: edgeColor},
	}
}

func stopMarker(ps geo.ProjectedStop, pct *float64, r float64) Group {
	band := occupancy.BandOf(pct)
	value := "N/A"
	if pct != nil {
		value = strconv.FormatFloat(*pct, 'f', 1, 64)
	}

	return Group{
		Class: "stop-node",
		Data: []Attr{
			{Name: "stop-id", Value: strconv.FormatInt(ps.ID, 10)},
			{Name: "stop-name", Value: ps.Name},
			{Name: "occupancy", Value: value},
			{Name: "band", Value: band.String()},
		},
		Children: []Element{
			Circle{
				Class:  "stop-shadow",
				Center: geo.Point{X: ps.X + 2, Y: ps.Y + 2},
				R:      r,
				Style:  Style{Fill: "#000000", Opacity: 0.2},
			},
			Circle{
				Class:  "stop-fill",
				Center: ps.Point,
				R:      r,
				Style:  Style{Fill: occupancy.FillPalette.Band(band), Stroke: "#FFFFFF", StrokeWidth: 3},
			},
			Circle{
				Class:  "stop-highlight",
				Center: geo.Point{X: ps.X - r*0.3, Y: ps.Y - r*0.3},
				R:      r * 0.35,
				Style:  Style{Fill: "#FFFFFF", Opacity: 0.35},
			},
			Text{
				Class:   "stop-label",
				At:      geo.Point{X: ps.X + r + 15, Y: ps.Y + 5},
				Content: ps.Name,
				Size:    14,
				Anchor:  AnchorStart,
				Fill:    labelColor,
			},
		},
	}
}

// Count walks the scene and counts elements with the given class
func (s Scene) Count(class string) int {
	n := 0
	var walk func([]Element)
	walk = func(els []Element) {
		for _, el := range els {
			switch v := el.(type) {
			case Path:
				if v.Class == class {
					n++
				}
			case Circle:
				if v.Class == class {
					n++
				}
			case Text:
				if v.Class == class {
					n++
				}
			case Group:
				if v.Class == class {
					n++
				}
				walk(v.Children)
			}
		}
	}
	walk(s.Elements)
	return n
}

func formatNum(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
