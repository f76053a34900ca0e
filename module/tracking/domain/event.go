package domain

import "time"

// EventKind discriminates the events fanned out to subscribers.
type EventKind string

const (
	EventLocationUpdate    EventKind = "location_update"
	EventSpeedViolation    EventKind = "speed_violation"
	EventGeofenceViolation EventKind = "geofence_violation"
)

// Event is the envelope published to topic subscribers. Delivery is
// at-most-once; the persisted violation/alert row stays authoritative.
type Event struct {
	Kind      EventKind   `json:"kind"`
	VehicleID string      `json:"vehicle_id"`
	SchoolID  string      `json:"school_id,omitempty"`
	DriverID  string      `json:"driver_id,omitempty"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}
