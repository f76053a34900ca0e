package domain

import "time"

// LocationSample is one telemetry reading from a vehicle. Samples are
// append-only: once accepted they are never mutated, only deleted by the
// retention job.
type LocationSample struct {
	VehicleID string    `json:"vehicle_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`   // km/h
	Heading   *float64  `json:"heading,omitempty"` // degrees
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	TripID    string    `json:"trip_id,omitempty"`
}

// LocationSource tags where a current-location read was served from.
type LocationSource string

const (
	SourceCache LocationSource = "cache"
	SourceStore LocationSource = "store"
)

// CurrentLocation is the read-optimized projection of a vehicle's latest
// accepted sample. The telemetry store stays authoritative; this is a view.
type CurrentLocation struct {
	Sample   LocationSample `json:"sample"`
	CachedAt time.Time      `json:"cached_at"`
	Source   LocationSource `json:"source"`
}

// HistoryQuery filters the telemetry store. Page is 1-based.
type HistoryQuery struct {
	VehicleID string
	TripID    string
	Start     time.Time
	End       time.Time
	Page      int
	Limit     int
}

// BulkItemResult is the outcome of one sample in a bulk ingest.
type BulkItemResult struct {
	Index     int    `json:"index"`
	VehicleID string `json:"vehicle_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// BulkResult summarizes a bulk ingest; one item's failure never aborts
// the rest of the batch.
type BulkResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}
