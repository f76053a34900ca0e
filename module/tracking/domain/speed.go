package domain

import "time"

// Severity tiers for speeding, escalating with the delta above the limit.
type Severity string

const (
	SeverityWarning   Severity = "WARNING"
	SeverityViolation Severity = "VIOLATION"
	SeverityCritical  Severity = "CRITICAL"
)

// SpeedViolation is the durable record of a sample that exceeded the
// warning threshold. Resolution metadata belongs to the safety system.
type SpeedViolation struct {
	ID           string    `json:"id"`
	VehicleID    string    `json:"vehicle_id"`
	DriverID     string    `json:"driver_id,omitempty"`
	CurrentSpeed float64   `json:"current_speed"`
	SpeedLimit   float64   `json:"speed_limit"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Severity     Severity  `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
}

// SpeedAnalytics summarizes speed behaviour over a time window.
// Zero-valued when the window holds no samples; that is not an error.
type SpeedAnalytics struct {
	VehicleID      string    `json:"vehicle_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	SampleCount    int       `json:"sample_count"`
	AverageSpeed   float64   `json:"average_speed"`
	MinSpeed       float64   `json:"min_speed"`
	MaxSpeed       float64   `json:"max_speed"`
	ViolationCount int       `json:"violation_count"`
	DistanceKm     float64   `json:"distance_km"`
}

// FleetSpeedStats aggregates per-vehicle analytics fleet-wide or per school.
type FleetSpeedStats struct {
	SchoolID       string  `json:"school_id,omitempty"`
	VehicleCount   int     `json:"vehicle_count"`
	SampleCount    int     `json:"sample_count"`
	AverageSpeed   float64 `json:"average_speed"`
	MaxSpeed       float64 `json:"max_speed"`
	ViolationCount int     `json:"violation_count"`
	DistanceKm     float64 `json:"distance_km"`
}

// ViolationQuery filters the persisted violation listing. Page is 1-based.
type ViolationQuery struct {
	VehicleID string
	Severity  Severity
	Start     time.Time
	End       time.Time
	Page      int
	Limit     int
}
