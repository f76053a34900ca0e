package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f64(v float64) *float64 { return &v }

type mockTelemetryRepo struct {
	insertFn          func(ctx context.Context, s *domain.LocationSample) error
	getLatestFn       func(ctx context.Context, vehicleID string) (*domain.LocationSample, error)
	getHistoryFn      func(ctx context.Context, q *domain.HistoryQuery) ([]domain.LocationSample, error)
	getSpeedSamplesFn func(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error)
	getRangeFn        func(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error)
	deleteBeforeFn    func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockTelemetryRepo) Insert(ctx context.Context, s *domain.LocationSample) error {
	return m.insertFn(ctx, s)
}

func (m *mockTelemetryRepo) GetLatest(ctx context.Context, vehicleID string) (*domain.LocationSample, error) {
	return m.getLatestFn(ctx, vehicleID)
}

func (m *mockTelemetryRepo) GetHistory(ctx context.Context, q *domain.HistoryQuery) ([]domain.LocationSample, error) {
	return m.getHistoryFn(ctx, q)
}

func (m *mockTelemetryRepo) GetSpeedSamples(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error) {
	return m.getSpeedSamplesFn(ctx, vehicleID, start, end)
}

func (m *mockTelemetryRepo) GetRange(ctx context.Context, vehicleID string, start, end time.Time) ([]domain.LocationSample, error) {
	return m.getRangeFn(ctx, vehicleID, start, end)
}

func (m *mockTelemetryRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleteBeforeFn(ctx, cutoff)
}

type mockGeofenceRepo struct {
	createFn             func(ctx context.Context, gf *domain.Geofence) error
	getActiveByVehicleFn func(ctx context.Context, vehicleID string) ([]domain.Geofence, error)
	listByVehicleFn      func(ctx context.Context, vehicleID string) ([]domain.Geofence, error)
	updateFn             func(ctx context.Context, gf *domain.Geofence) error
	deleteFn             func(ctx context.Context, id string) error
	insertAlertFn        func(ctx context.Context, alert *domain.GeofenceAlert) error
}

func (m *mockGeofenceRepo) Create(ctx context.Context, gf *domain.Geofence) error {
	return m.createFn(ctx, gf)
}

func (m *mockGeofenceRepo) GetActiveByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error) {
	return m.getActiveByVehicleFn(ctx, vehicleID)
}

func (m *mockGeofenceRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]domain.Geofence, error) {
	return m.listByVehicleFn(ctx, vehicleID)
}

func (m *mockGeofenceRepo) Update(ctx context.Context, gf *domain.Geofence) error {
	return m.updateFn(ctx, gf)
}

func (m *mockGeofenceRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockGeofenceRepo) InsertAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	return m.insertAlertFn(ctx, alert)
}

type mockViolationRepo struct {
	insertFn        func(ctx context.Context, v *domain.SpeedViolation) error
	countInWindowFn func(ctx context.Context, vehicleID string, start, end time.Time) (int, error)
	listFn          func(ctx context.Context, q *domain.ViolationQuery) ([]domain.SpeedViolation, error)
}

func (m *mockViolationRepo) Insert(ctx context.Context, v *domain.SpeedViolation) error {
	return m.insertFn(ctx, v)
}

func (m *mockViolationRepo) CountInWindow(ctx context.Context, vehicleID string, start, end time.Time) (int, error) {
	return m.countInWindowFn(ctx, vehicleID, start, end)
}

func (m *mockViolationRepo) List(ctx context.Context, q *domain.ViolationQuery) ([]domain.SpeedViolation, error) {
	return m.listFn(ctx, q)
}

type mockArrivalRepo struct {
	recentArrivalsFn func(ctx context.Context, vehicleID, stopID string, limit int) ([]domain.StopArrival, error)
}

func (m *mockArrivalRepo) RecentArrivals(ctx context.Context, vehicleID, stopID string, limit int) ([]domain.StopArrival, error) {
	return m.recentArrivalsFn(ctx, vehicleID, stopID, limit)
}

// mockPublisher is safe for the async location publish path.
type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error
	done   chan struct{}
}

func (m *mockPublisher) Publish(_ context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.err
}

func (m *mockPublisher) published() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

type mockNotifier struct {
	geofenceAlerts []*domain.GeofenceAlert
	speedAlerts    []*domain.SpeedViolation
}

func (m *mockNotifier) NotifyGeofence(_ context.Context, alert *domain.GeofenceAlert) error {
	m.geofenceAlerts = append(m.geofenceAlerts, alert)
	return nil
}

func (m *mockNotifier) NotifySpeed(_ context.Context, v *domain.SpeedViolation) error {
	m.speedAlerts = append(m.speedAlerts, v)
	return nil
}

type mockDirectory struct {
	vehicleFn        func(ctx context.Context, id string) (*domain.Vehicle, error)
	activeVehiclesFn func(ctx context.Context, schoolID string) ([]domain.Vehicle, error)
	activeDriverFn   func(ctx context.Context, vehicleID string) (string, error)
}

func (m *mockDirectory) Vehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.vehicleFn != nil {
		return m.vehicleFn(ctx, id)
	}
	return &domain.Vehicle{ID: id, SchoolID: "S1", Active: true}, nil
}

func (m *mockDirectory) ActiveVehicles(ctx context.Context, schoolID string) ([]domain.Vehicle, error) {
	return m.activeVehiclesFn(ctx, schoolID)
}

func (m *mockDirectory) ActiveDriver(ctx context.Context, vehicleID string) (string, error) {
	if m.activeDriverFn != nil {
		return m.activeDriverFn(ctx, vehicleID)
	}
	return "", nil
}

type mockRoutes struct {
	activeRouteFn func(ctx context.Context, vehicleID string) (*domain.Route, error)
}

func (m *mockRoutes) ActiveRoute(ctx context.Context, vehicleID string) (*domain.Route, error) {
	return m.activeRouteFn(ctx, vehicleID)
}

type mockLocationReader struct {
	getCurrentFn func(ctx context.Context, vehicleID string) (*domain.CurrentLocation, error)
}

func (m *mockLocationReader) GetCurrentLocation(ctx context.Context, vehicleID string) (*domain.CurrentLocation, error) {
	return m.getCurrentFn(ctx, vehicleID)
}
