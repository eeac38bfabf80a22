// Package heatmap turns a route's stops and occupancy predictions into a
// drawable scene, renders it, and holds the operator's selection state.
package heatmap

import "github.com/passengerflow-console/pkg/passengerflow/models"

type indexKey struct {
	stop string
	hour int
}

// PredictionIndex looks predictions up by stop name and hour of day. When the
// backend sends several predictions for the same key the first one wins.
type PredictionIndex struct {
	byKey map[indexKey]*float64
	count int
}

func NewPredictionIndex(predictions []models.Prediction) *PredictionIndex {
	ix := &PredictionIndex{
		byKey: make(map[indexKey]*float64, len(predictions)),
		count: len(predictions),
	}
	for _, p := range predictions {
		k := indexKey{stop: p.StopName, hour: p.Time.Hour}
		if _, seen := ix.byKey[k]; seen {
			continue
		}
		ix.byKey[k] = p.OccupancyPercentage
	}
	return ix
}

// Lookup reports the occupancy for stop at hour. ok is false when there is no
// prediction; pct may still be nil when the prediction carries no value.
func (ix *PredictionIndex) Lookup(stop string, hour int) (pct *float64, ok bool) {
	if ix == nil {
		return nil, false
	}
	pct, ok = ix.byKey[indexKey{stop: stop, hour: hour}]
	return pct, ok
}

// Occupancy is Lookup without the presence flag
func (ix *PredictionIndex) Occupancy(stop string, hour int) *float64 {
	pct, _ := ix.Lookup(stop, hour)
	return pct
}

// Len is the number of predictions the index was built from
func (ix *PredictionIndex) Len() int {
	if ix == nil {
		return 0
	}
	return ix.count
}
