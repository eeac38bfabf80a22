package models

// Stop is a physical bus stop belonging to one route
type Stop struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	RouteName string  `json:"routeName"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// Prediction is the modelled occupancy of a stop at a given time of day.
// OccupancyPercentage is nil when the backend has no value.
type Prediction struct {
	StopName            string    `json:"stopName"`
	Time                ClockTime `json:"time"`
	OccupancyPercentage *float64  `json:"occupancyPercentage"`
}

// PassengerCount is one boarding/alighting record
type PassengerCount struct {
	ID        int64         `json:"id,omitempty"`
	BusID     int64         `json:"busId"`
	StopID    int64         `json:"stopId"`
	Entered   int           `json:"entered"`
	Exited    int           `json:"exited"`
	Timestamp LocalDateTime `json:"timestamp"`
	BusModel  string        `json:"busModel,omitempty"`
	StopName  string        `json:"stopName,omitempty"`
	RouteName string        `json:"routeName,omitempty"`
}

// Page mirrors the backend's paged response envelope
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type Bus struct {
	ID               int64  `json:"id"`
	BusModelID       int64  `json:"busModelId"`
	BusModelName     string `json:"busModelName"`
	BusModelCapacity int    `json:"busModelCapacity"`
	RouteID          int64  `json:"routeId"`
	RouteName        string `json:"routeName"`
}

// ErrorDetails is the backend's error body
type ErrorDetails struct {
	Timestamp LocalDateTime `json:"timestamp"`
	Status    int           `json:"status"`
	Error     string        `json:"error"`
	Message   string        `json:"message"`
	Details   string        `json:"details"`
}
