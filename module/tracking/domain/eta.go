package domain

import "time"

// ETAEstimate is computed on demand, never persisted.
type ETAEstimate struct {
	VehicleID        string     `json:"vehicle_id"`
	CurrentLatitude  float64    `json:"current_latitude"`
	CurrentLongitude float64    `json:"current_longitude"`
	NextStopID       string     `json:"next_stop_id,omitempty"`
	NextStopName     string     `json:"next_stop_name,omitempty"`
	DistanceMeters   float64    `json:"distance_meters,omitempty"`
	DurationMinutes  float64    `json:"duration_minutes,omitempty"`
	AverageSpeed     float64    `json:"average_speed,omitempty"`
	TrafficFactor    float64    `json:"traffic_factor,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
}

// ETAAnalysis compares an estimate against the stop schedule.
type ETAAnalysis struct {
	Estimate         ETAEstimate `json:"estimate"`
	ScheduledArrival time.Time   `json:"scheduled_arrival"`
	DelayMinutes     float64     `json:"delay_minutes"`
	IsDelayed        bool        `json:"is_delayed"`
	Recommendations  []string    `json:"recommendations,omitempty"`
}

// ETAPrediction is the historical-regression fallback: the naive estimate
// shifted by the mean observed delay at the stop, with a confidence derived
// from the delay spread.
type ETAPrediction struct {
	VehicleID        string    `json:"vehicle_id"`
	StopID           string    `json:"stop_id"`
	PredictedArrival time.Time `json:"predicted_arrival"`
	MeanDelayMinutes float64   `json:"mean_delay_minutes"`
	Confidence       float64   `json:"confidence"`
	SampleCount      int       `json:"sample_count"`
}

// StopArrival is one historical arrival record at a stop, written by the
// external attendance system and read here for prediction.
type StopArrival struct {
	VehicleID    string    `json:"vehicle_id"`
	StopID       string    `json:"stop_id"`
	ArrivedAt    time.Time `json:"arrived_at"`
	DelayMinutes float64   `json:"delay_minutes"`
}
