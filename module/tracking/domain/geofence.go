package domain

import "time"

// Geofence is a circular boundary watched for a vehicle. Ownership and
// mutation belong to the fleet-management system; the evaluator reads it.
type Geofence struct {
	ID           string  `json:"id"`
	VehicleID    string  `json:"vehicle_id"`
	Name         string  `json:"name"`
	CenterLat    float64 `json:"center_lat"`
	CenterLon    float64 `json:"center_lon"`
	RadiusMeters float64 `json:"radius_meters"`
	AlertOnEnter bool    `json:"alert_on_enter"`
	AlertOnExit  bool    `json:"alert_on_exit"`
	IsActive     bool    `json:"is_active"`
}

// Containment is a vehicle's last observed relation to one geofence.
type Containment string

const (
	Inside  Containment = "INSIDE"
	Outside Containment = "OUTSIDE"
)

// GeofenceAction is the edge detected between two consecutive evaluations.
type GeofenceAction string

const (
	ActionEnter GeofenceAction = "ENTER"
	ActionExit  GeofenceAction = "EXIT"
)

// GeofenceAlert is the durable record of a detected transition. It is
// written before the corresponding event is published.
type GeofenceAlert struct {
	ID        string         `json:"id"`
	VehicleID string         `json:"vehicle_id"`
	Geofence  string         `json:"geofence_id"`
	Name      string         `json:"geofence_name"`
	Action    GeofenceAction `json:"action"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timestamp time.Time      `json:"timestamp"`
}
