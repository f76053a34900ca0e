package domain

import (
	"context"
	"time"
)

// Vehicle is the slice of the fleet directory this subsystem reads.
type Vehicle struct {
	ID       string `json:"id"`
	SchoolID string `json:"school_id"`
	Class    string `json:"class,omitempty"`
	Active   bool   `json:"active"`
}

// RouteStop is one scheduled stop on a route, in route order.
type RouteStop struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	ScheduledArrival time.Time `json:"scheduled_arrival"`
}

// Route is a vehicle's active route with its ordered stops.
type Route struct {
	ID        string      `json:"id"`
	VehicleID string      `json:"vehicle_id"`
	Stops     []RouteStop `json:"stops"`
}

// VehicleDirectory is the external fleet-management collaborator.
// CRUD over vehicles, drivers and schools lives there, not here.
type VehicleDirectory interface {
	Vehicle(ctx context.Context, id string) (*Vehicle, error)
	ActiveVehicles(ctx context.Context, schoolID string) ([]Vehicle, error)
	// ActiveDriver returns the driver currently signed in to the vehicle,
	// or "" when no session is active.
	ActiveDriver(ctx context.Context, vehicleID string) (string, error)
}

// RouteDirectory resolves a vehicle's active route and stop schedule.
type RouteDirectory interface {
	ActiveRoute(ctx context.Context, vehicleID string) (*Route, error)
}

// Notifier hands violation alerts to the external delivery system
// (push/SMS/email). Delivery semantics are its problem.
type Notifier interface {
	NotifyGeofence(ctx context.Context, alert *GeofenceAlert) error
	NotifySpeed(ctx context.Context, v *SpeedViolation) error
}

// TrackingStats is a read-only historical rollup for one vehicle.
type TrackingStats struct {
	VehicleID    string    `json:"vehicle_id"`
	Days         int       `json:"days"`
	SampleCount  int       `json:"sample_count"`
	AverageSpeed float64   `json:"average_speed"`
	DistanceKm   float64   `json:"distance_km"`
	LastUpdate   time.Time `json:"last_update"`
	IsActive     bool      `json:"is_active"`
}
