package database

import (
	"context"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

// TelemetryRepository is the append-only position history. Samples are
// inserted, queried and eventually deleted by retention; never updated.
type TelemetryRepository interface {
	Insert(ctx context.Context, sample *domain.LocationSample) error
	GetLatest(ctx context.Context, vehicleID string) (*domain.LocationSample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.LocationSample, error)
	// GetSpeedSamples returns samples with a non-null speed in [start, end].
	GetSpeedSamples(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error)
	// GetRange returns all samples for a vehicle in [start, end].
	GetRange(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type GeofenceRepository interface {
	Create(ctx context.Context, gf *domain.Geofence) error
	GetActiveByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error)
	ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error)
	Update(ctx context.Context, gf *domain.Geofence) error
	Delete(ctx context.Context, id string) error
	InsertAlert(ctx context.Context, alert *domain.GeofenceAlert) error
}

type ViolationRepository interface {
	Insert(ctx context.Context, v *domain.SpeedViolation) error
	CountInWindow(ctx context.Context, vehicleID string, start, end time.Time) (int, error)
	List(ctx context.Context, query *domain.ViolationQuery) ([]domain.SpeedViolation, error)
}

// ArrivalRepository reads the stop-arrival history written by the external
// attendance system; used only by ETA prediction.
type ArrivalRepository interface {
	RecentArrivals(ctx context.Context, vehicleID, stopID string, limit int) ([]domain.StopArrival, error)
}
