// Package occupancy maps an occupancy percentage to a severity band and the
// colours used to draw it.
package occupancy

import "fmt"

type Band int

const (
	Unknown Band = iota
	Low
	Moderate
	High
	Severe
	Critical
)

var bandLabels = [...]string{
	Unknown:  "unknown",
	Low:      "low",
	Moderate: "moderate",
	High:     "high",
	Severe:   "severe",
	Critical: "critical",
}

func (b Band) String() string {
	if b < Unknown || b > Critical {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandLabels[b]
}

// BandOf classifies a percentage into half-open bands
// [0,50) [50,80) [80,100) [100,120) [120,inf). Nil is Unknown.
func BandOf(pct *float64) Band {
	if pct == nil {
		return Unknown
	}
	switch v := *pct; {
	case v < 50:
		return Low
	case v < 80:
		return Moderate
	case v < 100:
		return High
	case v < 120:
		return Severe
	default:
		return Critical
	}
}

// Palette holds one colour per band
type Palette [Critical + 1]string

var (
	// FillPalette colours map nodes and table cells
	FillPalette = Palette{
		Unknown:  "#9E9E9E",
		Low:      "#4CAF50",
		Moderate: "#FFEB3B",
		High:     "#FF9800",
		Severe:   "#F44336",
		Critical: "#B71C1C",
	}

	// TextPalette is tuned for text on a light background
	TextPalette = Palette{
		Unknown:  "#CCCCCC",
		Low:      "#4CAF50",
		Moderate: "#F9A825",
		High:     "#FF9800",
		Severe:   "#F44336",
		Critical: "#B71C1C",
	}
)

func (p Palette) Band(b Band) string {
	if b < Unknown || b > Critical {
		return p[Unknown]
	}
	return p[b]
}

func (p Palette) Color(pct *float64) string {
	return p.Band(BandOf(pct))
}

// Format renders a percentage for display, "no data" when missing
func Format(pct *float64) string {
	if pct == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f%%", *pct)
}
